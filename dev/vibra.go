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
	"sync"

	"golang.org/x/sys/unix"

	"github.com/we-are-mono/thrum/daemon/logger"
)

type vibraFeature uint8

const (
	vibraFeatureRumble vibraFeature = 1 << iota
	vibraFeaturePeriodic
	vibraFeatureGain
)

// Vibra owns one force-feedback device. The kernel interface holds one
// effect id at a time; uploading while another effect is loaded first
// erases it.
type Vibra struct {
	mu       sync.Mutex
	devnode  string
	fd       int
	effectID int16 // currently uploaded effect, -1 when none
	features vibraFeature
	log      logger.Logger
}

// OpenVibra opens the force-feedback event node and probes its
// capabilities. Rumble and periodic support are required, master gain
// is set to 75% when available.
func OpenVibra(devnode string) (*Vibra, error) {
	fd, err := unix.Open(devnode, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", devnode, err)
	}

	v := &Vibra{
		devnode:  devnode,
		fd:       fd,
		effectID: -1,
		log:      logger.Component("dev-vibra"),
	}

	bits, err := ffFeatures(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("unable to probe features of %s: %w", devnode, err)
	}
	if hasFeature(bits, ffRumble) {
		v.features |= vibraFeatureRumble
	} else {
		unix.Close(fd)
		return nil, fmt.Errorf("no rumble capable vibra device %s", devnode)
	}
	if hasFeature(bits, ffPeriodic) {
		v.features |= vibraFeaturePeriodic
	} else {
		unix.Close(fd)
		return nil, fmt.Errorf("no periodic capable vibra device %s", devnode)
	}

	if hasFeature(bits, ffGain) {
		v.features |= vibraFeatureGain
		v.log.Debug("Setting master gain to 75%")
		if err := writeInputEvent(fd, evFF, ffGain, 0xC000); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("unable to set gain of %s: %w", devnode, err)
		}
	} else {
		v.log.Debug("Gain unsupported")
	}

	v.log.Debug("Vibra device usable", logger.Field{Key: "devnode", Value: devnode})
	return v, nil
}

// DevNode returns the event node the device was opened from
func (v *Vibra) DevNode() string {
	return v.devnode
}

// Rumble plays a rumble effect of the given relative magnitude and
// duration. With upload false the previously uploaded effect is
// replayed, saving the driver round trip on repetitions.
func (v *Vibra) Rumble(magnitude float64, durationMS uint32, upload bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if upload {
		v.removeLocked()
		effect := ffEffect{
			Type:   ffRumble,
			ID:     -1,
			Replay: ffReplay{Length: clampDuration(durationMS)},
		}
		effect.encodeRumble(scaleMagnitude(magnitude), 0)

		v.log.Debug("Uploading rumble effect",
			logger.Field{Key: "duration_ms", Value: durationMS},
			logger.Field{Key: "magnitude", Value: magnitude})
		if err := uploadEffect(v.fd, &effect); err != nil {
			return err
		}
		v.effectID = effect.ID
	}

	if v.effectID == -1 {
		return fmt.Errorf("no rumble effect uploaded")
	}

	v.log.Debug("Playing rumble effect", logger.Field{Key: "id", Value: v.effectID})
	return writeInputEvent(v.fd, evFF, uint16(v.effectID), 1)
}

// Periodic plays a sine effect with an optional fade-in envelope.
// Magnitudes are relative, [0,1].
func (v *Vibra) Periodic(durationMS uint32, magnitude, fadeInLevel float64, fadeInTimeMS uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if magnitude == 0 {
		magnitude = 1.0
	}
	if fadeInLevel == 0 {
		fadeInLevel = magnitude
	}
	if fadeInTimeMS == 0 {
		fadeInTimeMS = durationMS
	}

	effect := ffEffect{
		Type:      ffPeriodic,
		ID:        -1,
		Direction: 0x4000,
		Replay:    ffReplay{Length: clampDuration(durationMS), Delay: 0},
	}
	effect.encodePeriodic(ffSine, 10, int16(scaleMagnitude(magnitude)/2), 0, ffEnvelope{
		AttackLength: clampDuration(fadeInTimeMS),
		AttackLevel:  scaleMagnitude(fadeInLevel) / 2,
	})

	v.log.Debug("Uploading periodic effect",
		logger.Field{Key: "duration_ms", Value: durationMS},
		logger.Field{Key: "magnitude", Value: magnitude})
	v.removeLocked()
	if err := uploadEffect(v.fd, &effect); err != nil {
		return err
	}
	v.effectID = effect.ID

	v.log.Debug("Playing periodic effect", logger.Field{Key: "id", Value: v.effectID})
	return writeInputEvent(v.fd, evFF, uint16(v.effectID), 1)
}

// RemoveEffect erases the currently uploaded effect, if any
func (v *Vibra) RemoveEffect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.removeLocked()
}

func (v *Vibra) removeLocked() error {
	if v.effectID == -1 {
		return nil
	}

	v.log.Debug("Erasing effect", logger.Field{Key: "id", Value: v.effectID})
	err := removeEffect(v.fd, v.effectID)
	v.effectID = -1
	return err
}

// Stop halts playback and erases the uploaded effect
func (v *Vibra) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.effectID == -1 {
		return nil
	}

	if err := writeInputEvent(v.fd, evFF, uint16(v.effectID), 0); err != nil {
		return err
	}
	return v.removeLocked()
}

// IsBusy reports whether an effect is currently loaded. A nil receiver
// is idle, callers may not have a device at all.
func (v *Vibra) IsBusy() bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.effectID != -1
}

// Close releases the device
func (v *Vibra) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fd >= 0 {
		unix.Close(v.fd)
		v.fd = -1
	}
}

func scaleMagnitude(magnitude float64) uint16 {
	if magnitude < 0 {
		magnitude = 0
	}
	if magnitude > 1 {
		magnitude = 1
	}
	return uint16(magnitude * 0xFFFF)
}

func clampDuration(ms uint32) uint16 {
	if ms > 0xFFFF {
		return 0xFFFF
	}
	return uint16(ms)
}
