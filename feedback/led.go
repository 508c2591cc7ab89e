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

// Led blinks a LED of the requested color. The feedback has no natural
// end, it runs until ended explicitly or by the event timeout.
type Led struct {
	base
	spec  theme.LedSpec
	leds  LedDevice
	color theme.LedColor
	rgb   theme.RGB
	log   logger.Logger
}

func newLed(spec theme.LedSpec, level theme.Level, leds LedDevice, disp *dispatch.Dispatcher) *Led {
	color, rgb := spec.Color()
	return &Led{
		base:  base{disp: disp, level: level},
		spec:  spec,
		leds:  leds,
		color: color,
		rgb:   rgb,
		log:   logger.Component("fb-led"),
	}
}

func (l *Led) Available() bool {
	return l.leds != nil && l.leds.HasLed(l.color)
}

func (l *Led) Run() bool {
	if l.leds == nil {
		return false
	}

	err := l.leds.StartPeriodic(l.color, l.rgb, l.spec.BrightnessPct(), l.spec.FrequencyMHz)
	if err != nil {
		l.log.Warn("Failed to start LED pattern",
			logger.Field{Key: "color", Value: l.color.String()},
			logger.Field{Key: "error", Value: err.Error()})
		return false
	}

	l.state = StateRunning
	return true
}

func (l *Led) End() {
	if l.state != StateRunning {
		return
	}
	l.state = StateEnding

	if err := l.leds.Stop(l.color); err != nil {
		l.log.Warn("Failed to stop LED",
			logger.Field{Key: "color", Value: l.color.String()},
			logger.Field{Key: "error", Value: err.Error()})
	}
	l.finish(ReasonExplicit)
}
