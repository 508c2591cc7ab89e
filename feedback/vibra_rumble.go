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

// VibraRumble plays a rumble effect count times with pauses in between.
// The effect is uploaded once and replayed on each repetition.
type VibraRumble struct {
	vibra
	spec        theme.RumbleSpec
	periods     uint32
	periodTimer *dispatch.Timer
	log         logger.Logger
}

func newRumble(spec theme.RumbleSpec, level theme.Level, device VibraDevice, disp *dispatch.Dispatcher) *VibraRumble {
	if spec.Count == 0 {
		spec.Count = 1
	}
	total := spec.Count*spec.Duration + (spec.Count-1)*spec.Pause

	r := &VibraRumble{
		vibra: newVibra(level, device, disp, total),
		spec:  spec,
		log:   logger.Component("fb-vibra-rumble"),
	}
	r.startVibra = r.start
	r.endVibra = r.stop
	return r
}

func (r *VibraRumble) start() {
	period := r.spec.Duration + r.spec.Pause
	r.periods = r.spec.Count

	r.log.Debug("Rumble vibra event",
		logger.Field{Key: "duration_ms", Value: r.spec.Duration},
		logger.Field{Key: "pause_ms", Value: r.spec.Pause},
		logger.Field{Key: "count", Value: r.spec.Count})

	r.device.Rumble(r.clampMagnitude(r.spec.Magnitude), r.spec.Duration, true)
	r.periods--

	if r.periods > 0 {
		r.periodTimer = r.disp.AfterFunc(time.Duration(period)*time.Millisecond, r.onPeriodEnded)
	}
}

func (r *VibraRumble) onPeriodEnded() {
	r.periodTimer = nil
	if r.periods == 0 {
		return
	}

	// Replay the uploaded effect, no re-upload needed
	r.device.Rumble(r.clampMagnitude(r.spec.Magnitude), r.spec.Duration, false)
	r.periods--

	if r.periods > 0 {
		period := r.spec.Duration + r.spec.Pause
		r.periodTimer = r.disp.AfterFunc(time.Duration(period)*time.Millisecond, r.onPeriodEnded)
	}
}

func (r *VibraRumble) stop() {
	r.device.Stop()
	r.periodTimer.Stop()
	r.periodTimer = nil
	r.periods = 0
}
