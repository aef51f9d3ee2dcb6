// Package memory provides the in-memory settings store, the default
// for embedded and test use.
package memory

import (
	"context"
	"sync"

	"github.com/relaykit/relay/internal/core/ports"
)

// Store is an in-memory implementation of ports.SettingsStore.
type Store struct {
	mu       sync.RWMutex
	sections map[string]map[string]string
}

var _ ports.SettingsStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{sections: make(map[string]map[string]string)}
}

func (s *Store) Get(_ context.Context, section, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sections[section][key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sections[section] == nil {
		s.sections[section] = make(map[string]string)
	}
	s.sections[section][key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, section, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sections[section], key)
	return nil
}

func (s *Store) Section(_ context.Context, section string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.sections[section]))
	for k, v := range s.sections[section] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
