package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

var (
	// ErrEmpty indicates no settings have been stored yet.
	ErrEmpty = errors.New("no settings resolved yet")
	// ErrNilSettings indicates a snapshot without settings was offered.
	ErrNilSettings = errors.New("snapshot has no settings")
)

// Snapshot is one resolved generation of settings.
type Snapshot struct {
	Revision   string
	Settings   *settings.Settings
	Findings   []settings.Finding
	Override   string
	ResolvedAt time.Time
}

// Storage provides access to the current settings snapshot.
type Storage interface {
	Current() (Snapshot, error)
	Store(snap Snapshot) (Snapshot, error)
}

// MemoryStorage keeps the current snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Current returns a copy of the stored snapshot.
func (s *MemoryStorage) Current() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Snapshot{}, ErrEmpty
	}
	return cloneSnapshot(*s.current)
}

// Store copies snap, assigns it a fresh revision and makes it current.
func (s *MemoryStorage) Store(snap Snapshot) (Snapshot, error) {
	if snap.Settings == nil {
		return Snapshot{}, ErrNilSettings
	}

	stored, err := cloneSnapshot(snap)
	if err != nil {
		return Snapshot{}, err
	}
	stored.Revision = uuid.NewString()
	if stored.ResolvedAt.IsZero() {
		stored.ResolvedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.current = &stored
	s.mu.Unlock()

	return cloneSnapshot(stored)
}

func cloneSnapshot(src Snapshot) (Snapshot, error) {
	out := src
	cloned, err := src.Settings.Clone()
	if err != nil {
		return Snapshot{}, fmt.Errorf("copy snapshot: %w", err)
	}
	out.Settings = cloned
	out.Findings = slices.Clone(src.Findings)
	return out, nil
}
