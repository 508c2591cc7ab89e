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
	"fmt"
	"path/filepath"

	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/theme"
)

const (
	ledMultiIndexAttr     = "multi_index"
	ledMultiIntensityAttr = "multi_intensity"
)

// multicolorLed is an RGB LED using the multi_intensity sysfs interface
type multicolorLed struct {
	baseLed
	redIndex   int
	greenIndex int
	blueIndex  int
}

func probeMulticolor(path string, log logger.Logger) (Led, error) {
	name := filepath.Base(path)

	index, err := sysfsAttrStrv(path, ledMultiIndexAttr)
	if err != nil {
		return nil, fmt.Errorf("%s is no multicolor LED", name)
	}
	if len(index) != 3 {
		return nil, fmt.Errorf("%s is no multicolor RGB LED", name)
	}

	brightness, err := sysfsAttrInt(path, ledMaxBrightnessAttr)
	if err != nil || brightness == 0 {
		return nil, fmt.Errorf("%s has no max_brightness", name)
	}

	led := &multicolorLed{
		baseLed: baseLed{
			path:          path,
			name:          name,
			maxBrightness: uint32(brightness),
			color:         theme.LedColorRGB,
			priority:      10,
			log:           log,
		},
		redIndex:   -1,
		greenIndex: -1,
		blueIndex:  -1,
	}

	for i, channel := range index {
		switch channel {
		case "red":
			led.redIndex = i
		case "green":
			led.greenIndex = i
		case "blue":
			led.blueIndex = i
		default:
			log.Warn("Unsupported LED color channel",
				logger.Field{Key: "led", Value: name},
				logger.Field{Key: "channel", Value: channel})
		}
	}
	if led.redIndex < 0 || led.greenIndex < 0 || led.blueIndex < 0 {
		return nil, fmt.Errorf("%s lacks rgb channels", name)
	}

	log.Debug("LED usable as multicolor", logger.Field{Key: "path", Value: path})
	return led, nil
}

func (l *multicolorLed) SupportsColor(c theme.LedColor) bool {
	switch c {
	case theme.LedColorWhite, theme.LedColorRed, theme.LedColorGreen,
		theme.LedColorBlue, theme.LedColorRGB:
		return true
	default:
		return false
	}
}

// SetColor writes multi_intensity as three space separated integers
// scaled to max_brightness, brightness set separately.
func (l *multicolorLed) SetColor(c theme.LedColor, rgb theme.RGB) error {
	channels := [3]uint32{}
	max := l.maxBrightness

	switch c {
	case theme.LedColorWhite:
		channels[l.redIndex] = max
		channels[l.greenIndex] = max
		channels[l.blueIndex] = max
	case theme.LedColorRed:
		channels[l.redIndex] = max
	case theme.LedColorGreen:
		channels[l.greenIndex] = max
	case theme.LedColorBlue:
		channels[l.blueIndex] = max
	case theme.LedColorRGB:
		channels[l.redIndex] = scaleChannel(rgb.R, max)
		channels[l.greenIndex] = scaleChannel(rgb.G, max)
		channels[l.blueIndex] = scaleChannel(rgb.B, max)
	default:
		return fmt.Errorf("unhandled color %s", c)
	}

	intensity := fmt.Sprintf("%d %d %d\n", channels[0], channels[1], channels[2])
	l.log.Debug("Multicolor intensity",
		logger.Field{Key: "led", Value: l.name},
		logger.Field{Key: "intensity", Value: intensity})

	if err := l.SetBrightness(max); err != nil {
		return err
	}
	if err := sysfsWriteAttr(l.path, ledMultiIntensityAttr, intensity); err != nil {
		return fmt.Errorf("failed to set multi intensity: %w", err)
	}
	return nil
}

func scaleChannel(v uint8, max uint32) uint32 {
	return uint32(float64(v) / 255.0 * float64(max))
}

func (l *multicolorLed) StartPeriodic(brightnessPct, freqMHz uint32) error {
	return startPatternTrigger(&l.baseLed, brightnessPct, freqMHz)
}
