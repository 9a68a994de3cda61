package upload

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// FieldName is the multipart field carrying the participant sheet.
const FieldName = "participantSheet"

// AllowedExtensions are the spreadsheet types the web form offers.
var AllowedExtensions = []string{".xls", ".xlsx", ".csv"}

// Object describes a stored file.
type Object struct {
	// Name is the generated storage name.
	Name string
	// Path is the storage-relative location ("/uploads/<name>" locally, the object key in blob stores).
	Path string
	// URL is the absolute download URL when the backend knows it. Local storage leaves it
	// empty because the public host is only known per request.
	URL string
}

// Storage writes participant sheets somewhere they can be downloaded from.
type Storage interface {
	Save(ctx context.Context, name string, body io.Reader, contentType string) (Object, error)
}

var unsafeExt = regexp.MustCompile(`[^a-z0-9]`)

// StoredName derives a collision-resistant name from the uploaded file name: a random uuid,
// the slugged base name and a sanitised extension. Only [a-z0-9._-] survive.
func StoredName(original string) string {
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(original))
	base := slug.Make(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "sheet"
	}
	ext = unsafeExt.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	name := uuid.NewString() + "_" + base
	if ext != "" {
		name += "." + ext
	}
	return name
}

// HasAllowedExtension reports whether name ends in one of AllowedExtensions.
func HasAllowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
