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

// Package dev drives the feedback hardware: sysfs LEDs, the
// force-feedback haptic motor and the sound theme player.
package dev

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sysfsAttr returns the trimmed contents of a sysfs attribute
func sysfsAttr(devPath, attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(devPath, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// sysfsAttrInt reads a sysfs attribute as integer
func sysfsAttrInt(devPath, attr string) (int, error) {
	s, err := sysfsAttr(devPath, attr)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("attribute %s of %s: %w", attr, devPath, err)
	}
	return n, nil
}

// sysfsAttrStrv reads a sysfs attribute as whitespace separated fields
func sysfsAttrStrv(devPath, attr string) ([]string, error) {
	s, err := sysfsAttr(devPath, attr)
	if err != nil {
		return nil, err
	}
	return strings.Fields(s), nil
}

// sysfsHasAttr reports whether the attribute file exists
func sysfsHasAttr(devPath, attr string) bool {
	_, err := os.Stat(filepath.Join(devPath, attr))
	return err == nil
}

// sysfsWriteAttr writes a sysfs attribute
func sysfsWriteAttr(devPath, attr, value string) error {
	path := filepath.Join(devPath, attr)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sysfsWriteAttrInt writes a sysfs attribute as decimal integer
func sysfsWriteAttrInt(devPath, attr string, value int) error {
	return sysfsWriteAttr(devPath, attr, strconv.Itoa(value))
}
