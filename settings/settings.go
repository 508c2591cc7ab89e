// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Package settings persists the daemon configuration: active profile,
// theme names and per-application overrides. The backing JSON file is
// watched so external changes reach the daemon without a restart.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/we-are-mono/thrum/daemon/logger"
)

// App holds per-application settings, keyed by munged app id
type App struct {
	Profile string `json:"profile,omitempty"`
}

// Settings is the daemon configuration
type Settings struct {
	Profile        string         `json:"profile"`
	Theme          string         `json:"theme,omitempty"`
	SoundTheme     string         `json:"sound-theme,omitempty"`
	AllowImportant []string       `json:"allow-important,omitempty"`
	Applications   map[string]App `json:"applications,omitempty"`
}

func defaults() Settings {
	return Settings{Profile: "full"}
}

// Store loads, persists and watches a settings file
type Store struct {
	path string
	log  logger.Logger

	mu      sync.Mutex
	current Settings
	watcher *fsnotify.Watcher
}

// DefaultPath returns the settings file location in the user config dir
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "/etc"
	}
	return filepath.Join(dir, "thrum", "settings.json")
}

// Open loads the settings file at path, falling back to defaults when
// it does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		current: defaults(),
		log:     logger.Component("settings"),
	}

	if err := s.reload(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	loaded := defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("malformed settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// Get returns a snapshot of the current settings
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// AppProfile returns the per-application profile override for appID,
// empty when none is configured.
func (s *Store) AppProfile(appID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.current.Applications[MungeAppID(appID)]
	if !ok {
		return ""
	}
	return app.Profile
}

// AllowsImportant reports whether appID may raise its level with the
// important hint.
func (s *Store) AllowsImportant(appID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range s.current.AllowImportant {
		if allowed == appID {
			return true
		}
	}
	return false
}

// SetProfile persists a new active profile
func (s *Store) SetProfile(profile string) error {
	s.mu.Lock()
	if s.current.Profile == profile {
		s.mu.Unlock()
		return nil
	}
	s.current.Profile = profile
	snapshot := s.current
	s.mu.Unlock()

	return s.save(snapshot)
}

// save writes the settings atomically
func (s *Store) save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Watch reports external settings changes through onChange. The
// callback runs on the watcher goroutine with the freshly loaded
// settings; unchanged rewrites are suppressed.
func (s *Store) Watch(onChange func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}

	// Watch the directory, editors and atomic saves replace the file
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch settings directory: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}

				before := s.Get()
				if err := s.reload(); err != nil {
					s.log.Warn("Failed to reload settings",
						logger.Field{Key: "error", Value: err.Error()})
					continue
				}
				after := s.Get()
				if !reflect.DeepEqual(before, after) {
					onChange(after)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("Settings watcher error",
					logger.Field{Key: "error", Value: err.Error()})
			}
		}
	}()

	return nil
}

// Close stops watching
func (s *Store) Close() {
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
}

// MungeAppID canonicalizes an application id for use as settings key:
// anything outside [0-9a-z-] becomes '-', uppercase is folded.
func MungeAppID(appID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(appID) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
