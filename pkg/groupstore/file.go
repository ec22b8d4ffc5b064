package groupstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/viewgrid/pkg/view"
)

// File stores groups in a TOML file.
type File struct {
	mu   sync.Mutex
	path string
}

type fileDoc struct {
	ViewGroups []view.Group `toml:"view_groups"`
}

// NewFile creates a file store at path. The file is created on first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

func (f *File) Load(context.Context) ([]view.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc fileDoc
	if _, err := toml.DecodeFile(f.path, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read groups %s: %w", f.path, err)
	}
	return doc.ViewGroups, nil
}

func (f *File) Save(_ context.Context, groups []view.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fileDoc{ViewGroups: groups}); err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create group dir: %w", err)
	}

	// write-then-rename so readers never see a partial file
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write groups: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write groups: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

var _ Store = (*File)(nil)
