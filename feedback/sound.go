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

package feedback

import (
	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/dev"
	"github.com/we-are-mono/thrum/theme"
)

// Sound plays a sound theme event or an explicit file
type Sound struct {
	base
	spec  theme.SoundSpec
	sound SoundDevice
	log   logger.Logger
}

func newSound(spec theme.SoundSpec, level theme.Level, sound SoundDevice, disp *dispatch.Dispatcher) *Sound {
	return &Sound{
		base:  base{disp: disp, level: level},
		spec:  spec,
		sound: sound,
		log:   logger.Component("fb-sound"),
	}
}

// NewSoundFile builds a sound feedback for an explicit file, used for
// the sound-file trigger hint.
func NewSoundFile(path string, sound SoundDevice, disp *dispatch.Dispatcher) *Sound {
	return newSound(theme.SoundSpec{FileName: path, MediaRole: "event"},
		theme.LevelFull, sound, disp)
}

func (s *Sound) Available() bool {
	return s.sound != nil
}

// Effect returns the sound theme event the feedback plays
func (s *Sound) Effect() string {
	return s.spec.Effect
}

func (s *Sound) Run() bool {
	if s.sound == nil {
		return false
	}

	s.state = StateRunning
	s.log.Debug("Sound event", logger.Field{Key: "effect", Value: s.spec.Effect})

	s.sound.Play(s, s.spec.Effect, s.spec.FileName, s.spec.MediaRole, func(result dev.PlayResult) {
		s.disp.Post(func() {
			s.onPlayed(result)
		})
	})
	return true
}

func (s *Sound) onPlayed(result dev.PlayResult) {
	switch result {
	case dev.PlayCancelled:
		s.finish(ReasonExplicit)
	case dev.PlayNotFound:
		s.log.Warn("Sound not found, ending feedback",
			logger.Field{Key: "effect", Value: s.spec.Effect})
		s.finish(ReasonNatural)
	case dev.PlayFailed:
		s.finish(ReasonNatural)
	default:
		s.finish(ReasonNatural)
	}
}

func (s *Sound) End() {
	if s.state != StateRunning {
		return
	}
	s.state = StateEnding
	s.sound.Cancel(s)
}
