// Package upload stores post images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	URLPrefix      = "uploads"
	DefaultMaxSize = 5 << 20
)

var (
	ErrUnsupportedType = errors.New("upload: unsupported file type")
	ErrTooLarge        = errors.New("upload: file too large")
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	Dir     string
	MaxSize int64
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create dir %s: %w", dir, err)
	}
	return &Store{Dir: dir, MaxSize: DefaultMaxSize}, nil
}

// Save copies the uploaded file under a random name and returns its relative
// URL path, e.g. "uploads/3f9c....png".
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if s.MaxSize > 0 && fh.Size > s.MaxSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: open: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: create: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("upload: write: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("upload: close: %w", err)
	}

	return path.Join(URLPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Unknown or already
// removed files are ignored.
func (s *Store) Remove(rel string) error {
	name := path.Base(rel)
	if rel == "" || name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("upload: remove: %w", err)
	}
	return nil
}
