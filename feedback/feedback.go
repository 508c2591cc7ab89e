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

// Package feedback implements the concrete feedback kinds a theme entry
// can describe: sounds, vibra effects and LED patterns. A feedback owns
// its run/end lifecycle and reports completion to the owning event.
// All lifecycle methods run on the daemon dispatcher.
package feedback

import (
	"fmt"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/dev"
	"github.com/we-are-mono/thrum/theme"
)

// EndReason tells why a feedback or event ended. Values match the wire
// encoding of the FeedbackEnded signal.
type EndReason uint32

const (
	ReasonNatural EndReason = iota
	ReasonExpired
	ReasonExplicit
	ReasonNotFound
)

// String returns a reason name for logs
func (r EndReason) String() string {
	switch r {
	case ReasonNatural:
		return "natural"
	case ReasonExpired:
		return "expired"
	case ReasonExplicit:
		return "explicit"
	case ReasonNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// reasonRank orders reasons by precedence: not-found > expired >
// explicit > natural. The wire encoding is not monotonic in precedence.
func reasonRank(r EndReason) int {
	switch r {
	case ReasonNotFound:
		return 3
	case ReasonExpired:
		return 2
	case ReasonExplicit:
		return 1
	default:
		return 0
	}
}

// StrongerReason returns the reason that wins when both occurred
func StrongerReason(a, b EndReason) EndReason {
	if reasonRank(b) > reasonRank(a) {
		return b
	}
	return a
}

// State is a feedback lifecycle state
type State int

const (
	StateNone State = iota
	StateRunning
	StateEnding
	StateEnded
)

// VibraDevice is what vibra feedbacks need from the haptic motor
type VibraDevice interface {
	Rumble(magnitude float64, durationMS uint32, upload bool) error
	Periodic(durationMS uint32, magnitude, fadeInLevel float64, fadeInTimeMS uint32) error
	RemoveEffect() error
	Stop() error
	IsBusy() bool
}

// LedDevice is what LED feedbacks need from the LED set
type LedDevice interface {
	StartPeriodic(color theme.LedColor, rgb theme.RGB, brightnessPct, freqMHz uint32) error
	Stop(color theme.LedColor) error
	HasLed(color theme.LedColor) bool
}

// SoundDevice is what sound feedbacks need from the sound backend
type SoundDevice interface {
	Play(key interface{}, effect, file, mediaRole string, done func(dev.PlayResult))
	Cancel(key interface{})
}

// Devices bundles the shared, non-owning device handles handed to
// feedbacks at construction. Fields are nil when the hardware is
// absent.
type Devices struct {
	Vibra VibraDevice
	Leds  LedDevice
	Sound SoundDevice
}

// Feedback is one concrete output action
type Feedback interface {
	// Run starts the feedback without blocking. It returns false when
	// the feedback could not start; no completion will follow then.
	Run() bool
	// End stops the feedback. Idempotent, safe before and after
	// completion.
	End()
	// Available reports whether the hardware for this feedback exists
	Available() bool
	// Level is the theme profile slice the feedback was selected from
	Level() theme.Level
	// SetDone installs the completion callback, invoked exactly once
	// on the dispatcher after a successful Run.
	SetDone(func(EndReason))
	State() State
}

// base carries the lifecycle shared by all feedback kinds
type base struct {
	disp  *dispatch.Dispatcher
	level theme.Level
	state State
	done  func(EndReason)
}

func (b *base) Level() theme.Level         { return b.level }
func (b *base) State() State               { return b.state }
func (b *base) SetDone(fn func(EndReason)) { b.done = fn }

// finish transitions to Ended and fires the completion callback once.
// Natural completions racing an End are coerced to explicit.
func (b *base) finish(reason EndReason) {
	if b.state == StateEnded || b.state == StateNone {
		return
	}
	if b.state == StateEnding && reason == ReasonNatural {
		reason = ReasonExplicit
	}
	b.state = StateEnded

	if b.done != nil {
		b.done(reason)
	}
}

// New builds the feedback for a theme entry. The returned feedback
// holds non-owning references to the devices it drives.
func New(entry *theme.Entry, devs Devices, disp *dispatch.Dispatcher) (Feedback, error) {
	switch spec := entry.Spec.(type) {
	case theme.DummySpec:
		return newDummy(entry.Level, disp), nil
	case theme.SoundSpec:
		return newSound(spec, entry.Level, devs.Sound, disp), nil
	case theme.RumbleSpec:
		return newRumble(spec, entry.Level, devs.Vibra, disp), nil
	case theme.PeriodicSpec:
		return newPeriodic(spec, entry.Level, devs.Vibra, disp), nil
	case theme.PatternSpec:
		return newPattern(spec, entry.Level, devs.Vibra, disp), nil
	case theme.LedSpec:
		return newLed(spec, entry.Level, devs.Leds, disp), nil
	default:
		return nil, fmt.Errorf("unknown feedback spec %T", entry.Spec)
	}
}
