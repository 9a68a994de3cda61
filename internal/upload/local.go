package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local keeps files on the server's disk, served statically under PublicPath.
type Local struct {
	Dir        string
	PublicPath string
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &Local{Dir: dir, PublicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

// Save writes body to Dir/name. A partially written file is removed.
func (l *Local) Save(ctx context.Context, name string, body io.Reader, _ string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if name == "" || name != filepath.Base(name) {
		return Object{}, fmt.Errorf("invalid storage name %q", name)
	}

	dst := filepath.Join(l.Dir, name)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return Object{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return Object{}, fmt.Errorf("close %s: %w", name, err)
	}

	return Object{Name: name, Path: path.Join(l.PublicPath, name)}, nil
}
