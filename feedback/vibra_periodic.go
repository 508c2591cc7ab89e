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
	"github.com/we-are-mono/thrum/theme"
)

// VibraPeriodic plays a sine effect with an optional fade-in envelope
type VibraPeriodic struct {
	vibra
	spec theme.PeriodicSpec
	log  logger.Logger
}

func newPeriodic(spec theme.PeriodicSpec, level theme.Level, device VibraDevice, disp *dispatch.Dispatcher) *VibraPeriodic {
	p := &VibraPeriodic{
		vibra: newVibra(level, device, disp, spec.Duration),
		spec:  spec,
		log:   logger.Component("fb-vibra-periodic"),
	}
	p.startVibra = p.start
	p.endVibra = p.stop
	return p
}

func (p *VibraPeriodic) start() {
	magnitude := p.clampMagnitude(p.spec.Magnitude)

	// Keep the fade-in proportional when the magnitude got capped
	fadeInLevel := p.spec.FadeInLevel
	if p.spec.Magnitude > 0 {
		ratio := p.spec.FadeInLevel / p.spec.Magnitude
		if scaled := magnitude * ratio; scaled < fadeInLevel {
			fadeInLevel = scaled
		}
	}

	p.log.Debug("Periodic vibra event",
		logger.Field{Key: "magnitude", Value: magnitude},
		logger.Field{Key: "duration_ms", Value: p.spec.Duration},
		logger.Field{Key: "fade_in_level", Value: fadeInLevel},
		logger.Field{Key: "fade_in_time_ms", Value: p.spec.FadeInTime})

	p.device.Periodic(p.spec.Duration, magnitude, fadeInLevel, p.spec.FadeInTime)
}

func (p *VibraPeriodic) stop() {
	p.device.Stop()
}
