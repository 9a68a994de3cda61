package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrInvalidCredentials is returned for any failed admin login.
var ErrInvalidCredentials = errors.New("Invalid credentials")

// Admin is the single configured administrator.
type Admin struct {
	Email    string
	Password string
}

// Authenticate checks a login attempt. Both fields are always compared so a wrong
// email and a wrong password take the same time.
func (a Admin) Authenticate(email, password string) error {
	if a.Email == "" || a.Password == "" {
		return ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(a.Email))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.Password))
	if emailOK&passOK != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
