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

package dev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/we-are-mono/thrum/daemon/logger"
)

// PlayResult tells a sound feedback how its playback ended
type PlayResult int

const (
	PlayFinished PlayResult = iota
	PlayNotFound
	PlayCancelled
	PlayFailed
)

// players tried in order for playback
var soundPlayers = []string{"paplay", "pw-play", "canberra-gtk-play"}

const fallbackSoundTheme = "freedesktop"

// Sound plays XDG sound theme events through an external player, one
// subprocess per in-flight playback. Cancellation kills the player.
type Sound struct {
	mu        sync.Mutex
	player    string
	themeName string
	dataDirs  []string
	inflight  map[interface{}]context.CancelFunc
	log       logger.Logger
}

// NewSound locates a player binary and prepares the playback context
func NewSound() (*Sound, error) {
	var player string
	for _, candidate := range soundPlayers {
		if path, err := exec.LookPath(candidate); err == nil {
			player = path
			break
		}
	}
	if player == "" {
		return nil, errors.New("no sound player found")
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	return &Sound{
		player:    player,
		themeName: fallbackSoundTheme,
		dataDirs:  strings.Split(dataDirs, ":"),
		inflight:  make(map[interface{}]context.CancelFunc),
		log:       logger.Component("dev-sound"),
	}, nil
}

// SetTheme switches the sound theme applied to subsequent playbacks
func (s *Sound) SetTheme(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("Setting sound theme", logger.Field{Key: "theme", Value: name})
	s.themeName = name
}

// SetDataDirs overrides the sound theme search path (tests)
func (s *Sound) SetDataDirs(dirs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataDirs = dirs
}

// Locate resolves a sound theme event name to a file, walking the
// configured theme then the freedesktop fallback.
func (s *Sound) Locate(effect string) (string, bool) {
	s.mu.Lock()
	themes := []string{s.themeName}
	if s.themeName != fallbackSoundTheme {
		themes = append(themes, fallbackSoundTheme)
	}
	dataDirs := s.dataDirs
	s.mu.Unlock()

	for _, themeName := range themes {
		for _, dir := range dataDirs {
			for _, sub := range []string{"stereo", ""} {
				for _, ext := range []string{".oga", ".ogg", ".wav"} {
					path := filepath.Join(dir, "sounds", themeName, sub, effect+ext)
					if _, err := os.Stat(path); err == nil {
						return path, true
					}
				}
			}
		}
	}
	return "", false
}

// Play starts playback of the sound theme event (or the explicit file
// when set) and reports the outcome through done from a separate
// goroutine. key identifies the playback for Cancel.
func (s *Sound) Play(key interface{}, effect, file, mediaRole string, done func(PlayResult)) {
	path := file
	if path == "" {
		resolved, ok := s.Locate(effect)
		if !ok {
			s.log.Warn("Sound event not found",
				logger.Field{Key: "effect", Value: effect},
				logger.Field{Key: "theme", Value: s.themeName})
			go done(PlayNotFound)
			return
		}
		path = resolved
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev()
	}
	s.inflight[key] = cancel
	player := s.player
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, player, playerArgs(player, path, mediaRole)...)

	s.log.Debug("Playing sound",
		logger.Field{Key: "file", Value: path},
		logger.Field{Key: "media_role", Value: mediaRole})

	go func() {
		err := cmd.Run()

		s.mu.Lock()
		cancelled := ctx.Err() != nil
		delete(s.inflight, key)
		s.mu.Unlock()

		switch {
		case cancelled:
			done(PlayCancelled)
		case err != nil:
			s.log.Warn("Sound playback failed",
				logger.Field{Key: "file", Value: path},
				logger.Field{Key: "error", Value: err.Error()})
			done(PlayFailed)
		default:
			done(PlayFinished)
		}
	}()
}

// Cancel stops the in-flight playback identified by key, if any
func (s *Sound) Cancel(key interface{}) {
	s.mu.Lock()
	cancel, ok := s.inflight[key]
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

func playerArgs(player, path, mediaRole string) []string {
	if strings.HasSuffix(player, "paplay") {
		return []string{fmt.Sprintf("--property=media.role=%s", mediaRole), path}
	}
	return []string{path}
}
