package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileStore keeps every session in one TOML file, keyed by table name:
//
//	[sessions.last]
//	id = "9b1d..."
//	image_id = "tile_42"
//	started = 2026-03-01T12:00:00Z
//
//	[sessions.last.location]
//	lat = 47.6
//	lon = -122.3
type FileStore struct {
	mu   sync.Mutex
	path string
}

type sessionFile struct {
	Sessions map[string]Session `toml:"sessions"`
}

// NewFileStore opens the session file at path, creating its directory.
// The file itself is created on the first Set.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	sess, ok := f.Sessions[key]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(ctx context.Context, key string, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	f.Sessions[key] = *sess
	return s.write(f)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := f.Sessions[key]; !ok {
		return nil
	}
	delete(f.Sessions, key)
	return s.write(f)
}

// Path returns the session file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (sessionFile, error) {
	f := sessionFile{Sessions: make(map[string]Session)}
	_, err := toml.DecodeFile(s.path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read sessions %s: %w", s.path, err)
	}
	if f.Sessions == nil {
		f.Sessions = make(map[string]Session)
	}
	return f, nil
}

// write replaces the file through a temporary sibling.
func (s *FileStore) write(f sessionFile) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessions-*")
	if err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ Store = (*FileStore)(nil)
