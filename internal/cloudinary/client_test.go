package cloudinary

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	c := New("demo", "key", "secret", "")
	got := c.sign(map[string]string{
		"timestamp": "1700000000",
		"public_id": "sheet.csv",
		"api_key":   "ignored",
		"file":      "ignored",
	})
	want := fmt.Sprintf("%x", sha1.Sum([]byte("public_id=sheet.csv&timestamp=1700000000secret")))
	assert.Equal(t, want, got)
}

func TestUploadRaw(t *testing.T) {
	var (
		gotPath string
		gotForm map[string]string
		gotFile []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotForm[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		gotFile, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"public_id":"varna/sheets/abc_team.csv","secure_url":"https://res.cloudinary.com/demo/raw/upload/varna/sheets/abc_team.csv","resource_type":"raw","bytes":9}`)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "varna/sheets")
	c.APIBase = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	res, err := c.UploadRaw(context.Background(), strings.NewReader("a,b\n1,2\n"), "abc_team.csv")
	require.NoError(t, err)

	assert.Equal(t, "/v1_1/demo/raw/upload", gotPath)
	assert.Equal(t, "key", gotForm["api_key"])
	assert.Equal(t, "1700000000", gotForm["timestamp"])
	assert.Equal(t, "varna/sheets", gotForm["folder"])
	assert.Equal(t, "abc_team.csv", gotForm["public_id"])
	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=varna/sheets&public_id=abc_team.csv&timestamp=1700000000secret")))
	assert.Equal(t, want, gotForm["signature"])
	assert.Equal(t, "a,b\n1,2\n", string(gotFile))
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/varna/sheets/abc_team.csv", res.SecureURL)
	assert.Equal(t, "varna/sheets/abc_team.csv", res.PublicID)
}

func TestUploadRawError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "wrong", "")
	c.APIBase = srv.URL

	_, err := c.UploadRaw(context.Background(), strings.NewReader("x"), "x.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
