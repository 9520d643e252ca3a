package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NewLocalProvider stores history as JSON files under dir. The directory is
// created on first write.
func NewLocalProvider(dir string) Provider {
	return &provider{store: localStore{dir: dir}}
}

type localStore struct {
	dir string
}

func (s localStore) describe() string { return "local:" + s.dir }

func (s localStore) read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s localStore) write(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	// Write through a temp file so a crash never leaves a truncated document.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settle-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
