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
	"strings"

	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/theme"
)

// See Documentation/ABI/testing/sysfs-class-led-trigger-pattern

const (
	ledBrightnessAttr    = "brightness"
	ledMaxBrightnessAttr = "max_brightness"
	ledTriggerAttr       = "trigger"
	ledPatternAttr       = "pattern"
)

// Led is one usable LED discovered in sysfs. Variants differ in how
// they blink and which colors they can produce.
type Led interface {
	Path() string
	Name() string
	Priority() int
	MaxBrightness() uint32
	SupportsColor(theme.LedColor) bool
	SetColor(theme.LedColor, theme.RGB) error
	// StartPeriodic starts blinking at freq (mHz) capped at the given
	// percentage of max_brightness. freq 0 means constant light.
	StartPeriodic(brightnessPct, freqMHz uint32) error
	SetBrightness(uint32) error
}

// baseLed carries what every LED variant needs
type baseLed struct {
	path          string
	name          string
	maxBrightness uint32
	color         theme.LedColor
	priority      int
	log           logger.Logger
}

func (l *baseLed) Path() string          { return l.path }
func (l *baseLed) Name() string          { return l.name }
func (l *baseLed) Priority() int         { return l.priority }
func (l *baseLed) MaxBrightness() uint32 { return l.maxBrightness }

func (l *baseLed) SupportsColor(c theme.LedColor) bool {
	return l.color == c
}

func (l *baseLed) SetBrightness(brightness uint32) error {
	return sysfsWriteAttrInt(l.path, ledBrightnessAttr, int(brightness))
}

// scaledBrightness converts a percentage into raw brightness units
func (l *baseLed) scaledBrightness(pct uint32) uint32 {
	return uint32(float64(l.maxBrightness) * float64(pct) / 100.0)
}

// halfPeriodMS returns T/2 in ms for a blink frequency in mHz
func halfPeriodMS(freqMHz uint32) int {
	return int(1000.0 * 1000.0 / float64(freqMHz) / 2.0)
}

// plainLed is a single color LED blinked through the pattern trigger
type plainLed struct {
	baseLed
}

// probePlain accepts any LED whose name carries a color tag and a
// usable max_brightness.
func probePlain(path string, log logger.Logger) (Led, error) {
	name := filepath.Base(path)

	for _, color := range []theme.LedColor{
		theme.LedColorWhite, theme.LedColorRed, theme.LedColorGreen, theme.LedColorBlue,
	} {
		if !strings.Contains(name, color.String()) {
			continue
		}
		brightness, err := sysfsAttrInt(path, ledMaxBrightnessAttr)
		if err != nil || brightness == 0 {
			continue
		}

		log.Debug("LED usable as single color",
			logger.Field{Key: "path", Value: path},
			logger.Field{Key: "color", Value: color.String()})
		return &plainLed{baseLed{
			path:          path,
			name:          name,
			maxBrightness: uint32(brightness),
			color:         color,
			log:           log,
		}}, nil
	}

	return nil, fmt.Errorf("%s not usable as color LED", name)
}

func (l *plainLed) SetColor(theme.LedColor, theme.RGB) error {
	// Single color hardware, nothing to set
	return nil
}

func (l *plainLed) StartPeriodic(brightnessPct, freqMHz uint32) error {
	return startPatternTrigger(&l.baseLed, brightnessPct, freqMHz)
}

// startPatternTrigger drives the generic "pattern" trigger shared by the
// plain and multicolor variants.
func startPatternTrigger(l *baseLed, brightnessPct, freqMHz uint32) error {
	max := l.scaledBrightness(brightnessPct)

	if freqMHz == 0 {
		l.log.Debug("Constant light",
			logger.Field{Key: "led", Value: l.name},
			logger.Field{Key: "brightness_pct", Value: brightnessPct})
		return l.SetBrightness(max)
	}

	// The pattern trigger may need selecting first, brightness-only
	// LEDs expose it but default to "none".
	if sysfsHasAttr(l.path, ledTriggerAttr) {
		if err := sysfsWriteAttr(l.path, ledTriggerAttr, "pattern"); err != nil {
			l.log.Debug("Could not select pattern trigger",
				logger.Field{Key: "led", Value: l.name},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}

	t := halfPeriodMS(freqMHz)
	pattern := fmt.Sprintf("0 %d %d %d\n", t, max, t)
	l.log.Debug("Blink pattern",
		logger.Field{Key: "led", Value: l.name},
		logger.Field{Key: "freq_mhz", Value: freqMHz},
		logger.Field{Key: "brightness_pct", Value: brightnessPct},
		logger.Field{Key: "pattern", Value: pattern})

	if err := sysfsWriteAttr(l.path, ledPatternAttr, pattern); err != nil {
		return fmt.Errorf("failed to set led pattern: %w", err)
	}
	return nil
}

// flashLed is a camera flash LED. It is discovered so it can be
// excluded from color fallback, not to blink notifications with.
type flashLed struct {
	baseLed
}

func probeFlash(path string, log logger.Logger) (Led, error) {
	name := filepath.Base(path)

	if !sysfsHasAttr(path, "flash_strobe") || !sysfsHasAttr(path, "flash_brightness") {
		return nil, fmt.Errorf("%s is no flash LED", name)
	}
	brightness, err := sysfsAttrInt(path, ledMaxBrightnessAttr)
	if err != nil || brightness == 0 {
		return nil, fmt.Errorf("%s has no max_brightness", name)
	}

	log.Debug("LED usable as flash", logger.Field{Key: "path", Value: path})
	return &flashLed{baseLed{
		path:          path,
		name:          name,
		maxBrightness: uint32(brightness),
		color:         theme.LedColorFlash,
		priority:      5,
		log:           log,
	}}, nil
}

func (l *flashLed) SetColor(theme.LedColor, theme.RGB) error {
	return nil
}

func (l *flashLed) StartPeriodic(brightnessPct, freqMHz uint32) error {
	return startPatternTrigger(&l.baseLed, brightnessPct, freqMHz)
}
