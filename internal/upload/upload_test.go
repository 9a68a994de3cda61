package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varna/internal/cloudinary"
)

var uuidPrefix = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_`

func TestStoredName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Team Sheet.xlsx", `team-sheet\.xlsx`},
		{"participants.CSV", `participants\.csv`},
		{`C:\Users\coord\list (final).xls`, `list-final\.xls`},
		{"../../etc/passwd", `passwd`},
		{"().csv", `sheet\.csv`},
		{"noext", `noext`},
	}
	safe := regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	for _, tt := range tests {
		got := StoredName(tt.in)
		assert.Regexp(t, "^"+uuidPrefix+tt.want+"$", got, tt.in)
		assert.Regexp(t, safe, got)
	}
	assert.NotEqual(t, StoredName("same.csv"), StoredName("same.csv"))
}

func TestHasAllowedExtension(t *testing.T) {
	assert.True(t, HasAllowedExtension("a.xls"))
	assert.True(t, HasAllowedExtension("a.XLSX"))
	assert.True(t, HasAllowedExtension("a.csv"))
	assert.False(t, HasAllowedExtension("a.pdf"))
	assert.False(t, HasAllowedExtension("csv"))
}

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "uploads/")
	require.NoError(t, err)

	obj, err := l.Save(context.Background(), "abc_team.csv", strings.NewReader("a,b\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, Object{Name: "abc_team.csv", Path: "/uploads/abc_team.csv"}, obj)

	data, err := os.ReadFile(filepath.Join(dir, "abc_team.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	_, err = l.Save(context.Background(), "abc_team.csv", strings.NewReader("again"), "")
	assert.Error(t, err, "existing files are never overwritten")

	_, err = l.Save(context.Background(), "../escape.csv", strings.NewReader("x"), "")
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalSaveRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	_, err = l.Save(context.Background(), "broken.csv", io.MultiReader(strings.NewReader("a,"), failingReader{}), "")
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "broken.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestS3Save(t *testing.T) {
	var (
		gotMethod, gotPath, gotType string
		gotBody                     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(S3Config{
		Bucket:    "sheets",
		Region:    "ap-south-1",
		Endpoint:  srv.URL,
		Prefix:    "participant-sheets/",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	obj, err := s.Save(context.Background(), "abc_team.csv", strings.NewReader("a,b\n1,2\n"), "text/csv")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/sheets/participant-sheets/abc_team.csv", gotPath)
	assert.Equal(t, "text/csv", gotType)
	assert.Equal(t, "a,b\n1,2\n", string(gotBody))
	assert.Equal(t, "participant-sheets/abc_team.csv", obj.Path)
	assert.Equal(t, srv.URL+"/sheets/participant-sheets/abc_team.csv", obj.URL)
}

func TestS3ObjectURLWithoutEndpoint(t *testing.T) {
	s, err := NewS3(S3Config{Bucket: "sheets", Region: "ap-south-1", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.s3.ap-south-1.amazonaws.com/k.csv", s.objectURL("k.csv"))

	_, err = NewS3(S3Config{Region: "ap-south-1"})
	assert.Error(t, err)
}

func TestCloudinarySave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"public_id":"varna/abc_team.csv","secure_url":"https://res.cloudinary.com/demo/raw/upload/varna/abc_team.csv"}`)
	}))
	defer srv.Close()

	client := cloudinary.New("demo", "key", "secret", "varna")
	client.APIBase = srv.URL

	obj, err := NewCloudinary(client).Save(context.Background(), "abc_team.csv", strings.NewReader("x"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "abc_team.csv", obj.Name)
	assert.Equal(t, "varna/abc_team.csv", obj.Path)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/varna/abc_team.csv", obj.URL)
}
