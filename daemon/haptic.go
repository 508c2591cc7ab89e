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

package daemon

import (
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/feedback"
	"github.com/we-are-mono/thrum/theme"
)

// Haptic pattern limits
const (
	hapticMaxSteps = 10
	hapticMaxLenMS = 10000
)

// PatternStep is one (magnitude, duration) element of a haptic pattern
type PatternStep struct {
	Magnitude float64
	Duration  uint32
}

// HapticManager serves the direct vibration interface. One pattern runs
// at a time; a new call replaces it, an empty pattern cancels it.
// Event feedbacks take priority over the haptic interface.
type HapticManager struct {
	m       *Manager
	current *feedback.VibraPattern
	log     logger.Logger
}

func newHapticManager(m *Manager) *HapticManager {
	return &HapticManager{
		m:   m,
		log: logger.Component("haptic"),
	}
}

// buildPattern applies the limits: at most hapticMaxSteps steps, step
// length capped, magnitudes clamped to [0,1]. Returns false for an
// empty pattern.
func buildPattern(pattern []PatternStep) ([]float64, []uint32, bool) {
	if len(pattern) == 0 {
		return nil, nil, false
	}
	if len(pattern) > hapticMaxSteps {
		pattern = pattern[:hapticMaxSteps]
	}

	magnitudes := make([]float64, 0, len(pattern))
	durations := make([]uint32, 0, len(pattern))
	for _, step := range pattern {
		magnitude := step.Magnitude
		if magnitude < 0 {
			magnitude = 0
		}
		if magnitude > 1 {
			magnitude = 1
		}
		magnitudes = append(magnitudes, magnitude)

		duration := step.Duration
		if duration > hapticMaxLenMS {
			duration = hapticMaxLenMS
		}
		durations = append(durations, duration)
	}

	return magnitudes, durations, true
}

// Vibrate runs the pattern for appID. The most recent caller wins the
// motor; returns false when the level gates haptics, no device exists
// or an event currently holds the motor.
func (h *HapticManager) Vibrate(appID string, pattern []PatternStep) bool {
	h.log.Debug("Haptic triggered", logger.Field{Key: "app_id", Value: appID})

	level := h.m.effectiveLevel(appID, theme.LevelQuiet, false)
	if level < theme.LevelQuiet {
		h.log.Debug("Feedback level too low for haptic")
		return false
	}

	if h.m.vibra == nil {
		h.log.Debug("No haptic device")
		return false
	}

	magnitudes, durations, ok := buildPattern(pattern)
	if !ok {
		h.log.Debug("Empty pattern, ending feedback")
		h.EndFeedback()
		return true
	}

	h.EndFeedback()

	if h.m.vibra.IsBusy() {
		// An event holds the motor, deny the direct pattern
		h.log.Debug("Haptic busy")
		return false
	}

	fb := feedback.NewVibraPattern(magnitudes, durations, h.m.vibra, h.m.disp)
	fb.SetDone(func(feedback.EndReason) {
		h.current = nil
	})
	if !fb.Run() {
		return false
	}
	h.current = fb
	return true
}

// EndFeedback cancels the in-flight pattern, if any
func (h *HapticManager) EndFeedback() {
	if h.current == nil {
		return
	}

	current := h.current
	h.current = nil
	current.End()
}
