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
	"os"
	"path/filepath"

	"github.com/we-are-mono/thrum/daemon/logger"
)

const (
	ledHwPatternAttr  = "hw_pattern"
	ledRepeatAttr     = "repeat"
	ledRepeatInfinity = "-1"
	qcomLpgMaxPauseMS = 511
	qcomLedDriverName = "qcom-spmi-lpg"
)

// qcomLed is a single color LED on the Qualcomm LPG block. Blinking is
// offloaded to hardware via hw_pattern so it survives suspend.
type qcomLed struct {
	plainLed
}

func probeQcom(path string, log logger.Logger) (Led, error) {
	name := filepath.Base(path)

	if !sysfsHasAttr(path, ledHwPatternAttr) {
		return nil, fmt.Errorf("%s is no LED with HW pattern support", name)
	}
	if !isQcomLpg(path) {
		return nil, fmt.Errorf("%s is no QCOM LED", name)
	}

	inner, err := probePlain(path, log)
	if err != nil {
		return nil, err
	}

	led := &qcomLed{plainLed: *inner.(*plainLed)}
	led.priority = 20
	log.Debug("LED usable as QCOM single color", logger.Field{Key: "path", Value: path})
	return led, nil
}

// isQcomLpg walks the device links below the LED looking for the LPG
// driver.
func isQcomLpg(path string) bool {
	dev := filepath.Join(path, "device")
	for i := 0; i < 8; i++ {
		driver, err := os.Readlink(filepath.Join(dev, "driver"))
		if err == nil && filepath.Base(driver) == qcomLedDriverName {
			return true
		}
		parent := filepath.Join(dev, "..")
		resolved, err := filepath.Abs(parent)
		if err != nil || resolved == dev {
			return false
		}
		dev = resolved
	}
	return false
}

func (l *qcomLed) StartPeriodic(brightnessPct, freqMHz uint32) error {
	if err := startHwPattern(&l.baseLed, brightnessPct, freqMHz); err != nil {
		l.log.Warn("Falling back to software pattern",
			logger.Field{Key: "led", Value: l.name},
			logger.Field{Key: "error", Value: err.Error()})
		return startPatternTrigger(&l.baseLed, brightnessPct, freqMHz)
	}
	return nil
}

// startHwPattern drives the QCOM LPG hw_pattern interface. The LPG can
// only pause up to 511 ms so longer half periods are clamped.
func startHwPattern(l *baseLed, brightnessPct, freqMHz uint32) error {
	max := l.scaledBrightness(brightnessPct)

	if freqMHz == 0 {
		return l.SetBrightness(max)
	}

	t := halfPeriodMS(freqMHz)
	if t > qcomLpgMaxPauseMS {
		t = qcomLpgMaxPauseMS
	}
	pattern := fmt.Sprintf("0 %d 0 0 %d %d %d 0\n", t, max, t, max)

	if err := sysfsWriteAttr(l.path, ledRepeatAttr, ledRepeatInfinity); err != nil {
		return fmt.Errorf("failed to set LED repeat: %w", err)
	}
	if err := sysfsWriteAttr(l.path, ledHwPatternAttr, pattern); err != nil {
		return fmt.Errorf("failed to set LED hw_pattern: %w", err)
	}

	l.log.Debug("Blink pattern",
		logger.Field{Key: "led", Value: l.name},
		logger.Field{Key: "freq_mhz", Value: freqMHz},
		logger.Field{Key: "brightness_pct", Value: brightnessPct},
		logger.Field{Key: "pattern", Value: pattern},
		logger.Field{Key: "hw", Value: true})
	return nil
}

// qcomMulticolorLed is an RGB LED on the LPG block
type qcomMulticolorLed struct {
	multicolorLed
}

func probeQcomMulticolor(path string, log logger.Logger) (Led, error) {
	name := filepath.Base(path)

	if !sysfsHasAttr(path, ledHwPatternAttr) {
		return nil, fmt.Errorf("%s is no LED with HW pattern support", name)
	}
	if !isQcomLpg(path) {
		return nil, fmt.Errorf("%s is no QCOM LED", name)
	}

	inner, err := probeMulticolor(path, log)
	if err != nil {
		return nil, err
	}

	led := &qcomMulticolorLed{multicolorLed: *inner.(*multicolorLed)}
	led.priority = 30
	log.Debug("LED usable as QCOM multicolor", logger.Field{Key: "path", Value: path})
	return led, nil
}

func (l *qcomMulticolorLed) StartPeriodic(brightnessPct, freqMHz uint32) error {
	if err := startHwPattern(&l.baseLed, brightnessPct, freqMHz); err != nil {
		l.log.Warn("Falling back to software pattern",
			logger.Field{Key: "led", Value: l.name},
			logger.Field{Key: "error", Value: err.Error()})
		return startPatternTrigger(&l.baseLed, brightnessPct, freqMHz)
	}
	return nil
}
