package core

import (
	"context"
	"sync"
)

// StaticSettings is an in-memory SettingsStore, seeded from configuration.
type StaticSettings struct {
	mu  sync.RWMutex
	cfg ImportConfig
}

// NewStaticSettings returns a store holding cfg.
func NewStaticSettings(cfg ImportConfig) *StaticSettings {
	return &StaticSettings{cfg: cfg.Normalize()}
}

func (s *StaticSettings) Load(ctx context.Context) (ImportConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, nil
}

func (s *StaticSettings) Save(ctx context.Context, cfg ImportConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}
