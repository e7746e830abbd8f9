package main

import (
	"fmt"
	"os"
	"path/filepath"

	"agora/pkg/bus"
	"agora/pkg/config"
	"agora/pkg/store"
)

// openStore opens the coordination database named by the resolved config,
// creating the state directory on first use.
func openStore() (*store.Store, config.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, config.Config{}, fmt.Errorf("create state dir: %w", err)
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	return s, cfg, nil
}

// openBus opens the store and builds the bus facade over it. The caller owns
// the returned store and must Close it.
func openBus() (*bus.Bus, *store.Store, error) {
	s, cfg, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	b, err := bus.New(cfg, s)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return b, s, nil
}
