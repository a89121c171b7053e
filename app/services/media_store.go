package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const mediaURLPrefix = "/images/"

type Upload struct {
	Filename string
	Body     io.Reader
}

type MediaStore interface {
	Save(ctx context.Context, upload *Upload) (string, error)
	Remove(ctx context.Context, path string) error
}

// LocalMediaStore writes uploads under dir and serves them from /images/.
type LocalMediaStore struct {
	dir string
}

func NewLocalMediaStore(dir string) *LocalMediaStore {
	return &LocalMediaStore{dir: dir}
}

func (s *LocalMediaStore) Dir() string {
	return s.dir
}

func (s *LocalMediaStore) Save(ctx context.Context, upload *Upload) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	name := uuid.NewString() + "_" + sanitizeFilename(upload.Filename)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, upload.Body); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return mediaURLPrefix + name, nil
}

// Remove deletes a file previously returned by Save. A missing file is not
// an error.
func (s *LocalMediaStore) Remove(ctx context.Context, path string) error {
	name := filepath.Base(strings.TrimPrefix(path, mediaURLPrefix))
	if name == "" || name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
