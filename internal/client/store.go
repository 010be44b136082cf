package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

// State is the durable session snapshot: the token pair plus the
// absolute access-token expiry.
type State struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Empty reports whether no session is held.
func (s State) Empty() bool { return s.AccessToken == "" && s.RefreshToken == "" }

// Store persists session state between processes, the counterpart of
// browser local storage.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// MemStore keeps state in memory. Used by tests and short-lived tools.
type MemStore struct {
	mu sync.Mutex
	s  State
}

func (m *MemStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemStore) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = State{}
	return nil
}

// FileStore persists state as a JSON file with owner-only permissions.
// A missing file loads as an empty session.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (f *FileStore) Load() (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

func (f *FileStore) Save(s State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
