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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/theme"
)

const ledSysfsDir = "/sys/class/leds"

// ErrNoLed means no usable LED matched the request
var ErrNoLed = errors.New("no usable LED found")

// LedsConfig points device discovery at the right places, overridable
// for tests.
type LedsConfig struct {
	SysfsDir    string // defaults to /sys/class/leds
	UdevDataDir string // defaults to /run/udev/data
}

// Leds is the set of feedback-eligible LEDs, sorted by descending
// driver priority.
type Leds struct {
	mu   sync.Mutex
	leds []Led
	log  logger.Logger
}

// ledProbes tries variant drivers in order, most capable first
var ledProbes = []func(path string, log logger.Logger) (Led, error){
	probeQcomMulticolor,
	probeQcom,
	probeMulticolor,
	probeFlash,
	probePlain,
}

// NewLeds enumerates the "leds" subsystem and probes every device that
// carries the feedbackd udev marker.
func NewLeds(config LedsConfig) (*Leds, error) {
	if config.SysfsDir == "" {
		config.SysfsDir = ledSysfsDir
	}
	if config.UdevDataDir == "" {
		config.UdevDataDir = udevDataDir
	}
	log := logger.Component("dev-leds")

	entries, err := os.ReadDir(config.SysfsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate LEDs: %w", err)
	}

	var leds []Led
	for _, entry := range entries {
		path := filepath.Join(config.SysfsDir, entry.Name())

		value, ok := UdevProperty(config.UdevDataDir, "leds", entry.Name(), UdevTypeProperty)
		if !ok || value != UdevTypeLed {
			continue
		}

		led := probeLed(path, log)
		if led != nil {
			leds = append(leds, led)
		}
	}

	if len(leds) == 0 {
		return nil, ErrNoLed
	}

	sort.SliceStable(leds, func(i, j int) bool {
		return leds[i].Priority() > leds[j].Priority()
	})

	return &Leds{leds: leds, log: log}, nil
}

func probeLed(path string, log logger.Logger) Led {
	for _, probe := range ledProbes {
		led, err := probe(path, log)
		if err == nil {
			return led
		}
	}
	log.Debug("Unable to determine LED driver", logger.Field{Key: "path", Value: path})
	return nil
}

// findForColor picks the first LED supporting color, falling back to
// the first non-flash LED.
func (l *Leds) findForColor(color theme.LedColor) Led {
	for _, led := range l.leds {
		if led.SupportsColor(color) {
			return led
		}
	}
	for _, led := range l.leds {
		if !led.SupportsColor(theme.LedColorFlash) {
			return led
		}
	}
	return nil
}

// HasLed reports whether a usable LED exists for color
func (l *Leds) HasLed(color theme.LedColor) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findForColor(color) != nil
}

// StartPeriodic sets color on a suitable LED and starts blinking at
// freq (mHz) with the given max brightness percentage.
func (l *Leds) StartPeriodic(color theme.LedColor, rgb theme.RGB, brightnessPct, freqMHz uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	led := l.findForColor(color)
	if led == nil {
		return ErrNoLed
	}

	if err := led.SetColor(color, rgb); err != nil {
		return err
	}
	return led.StartPeriodic(brightnessPct, freqMHz)
}

// Stop disables the pattern of the LED serving color by zeroing its
// brightness.
func (l *Leds) Stop(color theme.LedColor) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	led := l.findForColor(color)
	if led == nil {
		return ErrNoLed
	}
	return led.SetBrightness(0)
}

// List returns the discovered LEDs in priority order
func (l *Leds) List() []Led {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Led(nil), l.leds...)
}
