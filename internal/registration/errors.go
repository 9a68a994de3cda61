package registration

import "fmt"

// ValidationError is a client mistake: a missing or malformed field or file.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ErrFileRequired is returned when a school submission arrives without its participant sheet.
var ErrFileRequired = &ValidationError{Msg: "File is required"}

// StorageError wraps a failed participant sheet write. Unlike datastore errors it is reported as a server error.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store participant sheet: %v", e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
