package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FileStore keeps attachment bytes outside the record store.
type FileStore interface {
	Save(ctx context.Context, name string, content []byte) error
	Open(ctx context.Context, name string) (afero.File, error)
	Remove(ctx context.Context, name string) error
}

// AferoStore writes files under a root directory of an afero filesystem.
type AferoStore struct {
	fs afero.Fs
}

// NewDiskStore roots a store at dir on the local disk, creating it if needed.
func NewDiskStore(dir string) (*AferoStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewAferoStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewMemoryStore keeps files in memory. Used when no upload directory is configured and in tests.
func NewMemoryStore() *AferoStore {
	return NewAferoStore(afero.NewMemMapFs())
}

// NewAferoStore wraps an existing filesystem.
func NewAferoStore(fs afero.Fs) *AferoStore {
	return &AferoStore{fs: fs}
}

func (s *AferoStore) Save(_ context.Context, name string, content []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	if dir := path.Dir(clean); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return afero.WriteFile(s.fs, clean, content, 0o640)
}

func (s *AferoStore) Open(_ context.Context, name string) (afero.File, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(clean)
}

func (s *AferoStore) Remove(_ context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.fs.Remove(clean)
}

// cleanName rejects absolute paths and parent traversal.
func cleanName(name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return clean, nil
}
