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
	"time"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/theme"
)

// VibraPattern sequences rumbles of the given magnitudes and durations
// back to back. A magnitude of 0 is a pause.
type VibraPattern struct {
	vibra
	spec      theme.PatternSpec
	pos       int
	stepTimer *dispatch.Timer
	log       logger.Logger
}

func newPattern(spec theme.PatternSpec, level theme.Level, device VibraDevice, disp *dispatch.Dispatcher) *VibraPattern {
	p := &VibraPattern{
		vibra: newVibra(level, device, disp, spec.TotalDuration()),
		spec:  spec,
		log:   logger.Component("fb-vibra-pattern"),
	}
	p.startVibra = p.start
	p.endVibra = p.stop
	return p
}

// NewVibraPattern builds a pattern feedback outside of theme lookup,
// used by the haptic bus interface.
func NewVibraPattern(magnitudes []float64, durations []uint32, device VibraDevice, disp *dispatch.Dispatcher) *VibraPattern {
	return newPattern(theme.PatternSpec{Magnitudes: magnitudes, Durations: durations},
		theme.LevelQuiet, device, disp)
}

func (p *VibraPattern) start() {
	if p.pos != 0 {
		p.stop()
	}

	p.log.Debug("Pattern vibra event",
		logger.Field{Key: "steps", Value: len(p.spec.Durations)})
	p.doStep()
}

func (p *VibraPattern) doStep() {
	magnitude := p.spec.Magnitudes[p.pos]
	duration := p.spec.Durations[p.pos]

	p.log.Debug("Pattern step",
		logger.Field{Key: "pos", Value: p.pos},
		logger.Field{Key: "magnitude", Value: magnitude},
		logger.Field{Key: "duration_ms", Value: duration})

	// A new step means a new effect
	p.device.RemoveEffect()

	if magnitude != 0.0 {
		p.device.Rumble(p.clampMagnitude(magnitude), duration, true)
	}

	p.stepTimer = p.disp.AfterFunc(time.Duration(duration)*time.Millisecond, p.onStepDone)
}

func (p *VibraPattern) onStepDone() {
	p.stepTimer = nil
	p.pos++

	if p.pos == len(p.spec.Durations) {
		p.pos = 0
		return
	}
	p.doStep()
}

func (p *VibraPattern) stop() {
	p.pos = 0
	p.stepTimer.Stop()
	p.stepTimer = nil
	p.device.Stop()
}
