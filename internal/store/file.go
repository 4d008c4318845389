package store

import (
	"context"
	"os"
	"path/filepath"
)

// File persists each key as a JSON file in a directory. Writes go through a
// temp file and rename so a crash mid-write never corrupts the previous
// state. This is the default backend for a single-table game night.
type File struct {
	Dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{Dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

func (f *File) Load(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return b, err
}

func (f *File) Save(_ context.Context, key string, value []byte) error {
	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
