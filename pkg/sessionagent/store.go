package sessionagent

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists session state between agent restarts. Implementations must
// tolerate a missing session: Load returns nil, nil when nothing is saved.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	Clear() error
}

// FileStore keeps the session as a JSON file with owner-only permissions.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt session file is the same as no session.
		return nil, nil
	}
	return &state, nil
}

func (s *FileStore) Save(state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore holds the session in memory only. Useful in tests and for
// callers that do not want persistence.
type MemoryStore struct {
	state *State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*State, error) {
	if s.state == nil {
		return nil, nil
	}
	copied := *s.state
	return &copied, nil
}

func (s *MemoryStore) Save(state *State) error {
	copied := *state
	s.state = &copied
	return nil
}

func (s *MemoryStore) Clear() error {
	s.state = nil
	return nil
}
