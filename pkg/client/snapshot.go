package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Snapshot persists the Identity between process runs. Load must distinguish
// "no snapshot" (nil, nil) from a decoding failure; callers treat the latter
// as no session, but may want to log it.
type Snapshot interface {
	Load() (*Identity, error)
	Save(identity *Identity) error
	Clear() error
}

// FileSnapshot stores the Identity as JSON in a single file, created with
// owner-only permissions since it may contain a bearer credential.
type FileSnapshot struct {
	Path string
}

func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{Path: path}
}

func (s *FileSnapshot) Load() (*Identity, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session snapshot: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &identity, nil
}

func (s *FileSnapshot) Save(identity *Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0o600); err != nil {
		return fmt.Errorf("write session snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshot) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session snapshot: %w", err)
	}
	return nil
}

// MemorySnapshot keeps the Identity in memory only. It is the default when
// no persistence is configured, and doubles as a test stand-in.
type MemorySnapshot struct {
	mu       sync.Mutex
	identity *Identity
}

func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{}
}

func (s *MemorySnapshot) Load() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil, nil
	}
	clone := *s.identity
	return &clone, nil
}

func (s *MemorySnapshot) Save(identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == nil {
		s.identity = nil
		return nil
	}
	clone := *identity
	s.identity = &clone
	return nil
}

func (s *MemorySnapshot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	return nil
}
