package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSnapshotter stores the cart as a JSON array in a single file.
type FileSnapshotter struct {
	Path string
}

func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{Path: path}
}

func (f *FileSnapshotter) Load(_ context.Context) ([]LineItem, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart file %s: %w", f.Path, err)
	}
	return items, nil
}

// Save replaces the file atomically so a crash never leaves a torn snapshot.
func (f *FileSnapshotter) Save(_ context.Context, items []LineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return fmt.Errorf("create temp cart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}
