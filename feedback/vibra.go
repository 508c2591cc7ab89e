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
	"github.com/we-are-mono/thrum/theme"
)

// vibra carries the lifecycle shared by all haptic feedback kinds: the
// variant starts its effect, a timer ends the feedback after the total
// duration. The variants know nothing about the hardware protocol, they
// call the VibraDevice for that.
type vibra struct {
	base
	device VibraDevice
	// durationMS is the total feedback length in ms
	durationMS uint32
	// maxStrength caps effect magnitudes, [0,1]. Hook for a device
	// strength preference.
	maxStrength float64
	timer       *dispatch.Timer

	startVibra func()
	endVibra   func()
}

func newVibra(level theme.Level, device VibraDevice, disp *dispatch.Dispatcher, durationMS uint32) vibra {
	return vibra{
		base:        base{disp: disp, level: level},
		device:      device,
		durationMS:  durationMS,
		maxStrength: 1.0,
	}
}

func (v *vibra) Available() bool {
	return v.device != nil
}

// SetMaxStrength caps the magnitudes the feedback may use
func (v *vibra) SetMaxStrength(strength float64) {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	v.maxStrength = strength
}

func (v *vibra) clampMagnitude(magnitude float64) float64 {
	if magnitude > v.maxStrength {
		return v.maxStrength
	}
	return magnitude
}

func (v *vibra) Run() bool {
	if v.device == nil {
		return false
	}

	v.state = StateRunning
	v.startVibra()

	v.timer = v.disp.AfterFunc(time.Duration(v.durationMS)*time.Millisecond, func() {
		v.device.Stop()
		v.timer = nil
		v.finish(ReasonNatural)
	})
	return true
}

func (v *vibra) End() {
	if v.state != StateRunning {
		return
	}
	v.state = StateEnding

	v.endVibra()
	v.timer.Stop()
	v.timer = nil
	v.finish(ReasonExplicit)
}
