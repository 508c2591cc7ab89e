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

package daemon

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/thrum/settings"
	"github.com/we-are-mono/thrum/theme"
)

// fakeMotor implements VibraDevice for haptic manager tests
type fakeMotor struct {
	mu      sync.Mutex
	rumbles []float64
	stops   int
	busy    bool
}

func (f *fakeMotor) Rumble(magnitude float64, durationMS uint32, upload bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rumbles = append(f.rumbles, magnitude)
	return nil
}

func (f *fakeMotor) Periodic(durationMS uint32, magnitude, fadeInLevel float64, fadeInTimeMS uint32) error {
	return nil
}

func (f *fakeMotor) RemoveEffect() error { return nil }

func (f *fakeMotor) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeMotor) IsBusy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeMotor) DevNode() string { return "/dev/input/event9" }

func (f *fakeMotor) Close() {}

func (f *fakeMotor) rumbleMagnitudes() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.rumbles...)
}

func (f *fakeMotor) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func newHapticFixture(t *testing.T, profile string) (*managerFixture, *fakeMotor) {
	t.Helper()

	disp := runDispatcher(t)
	bus := newFakeBus()
	motor := &fakeMotor{}

	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	m := NewManager(disp, store, bus, motor, nil, nil, 0)
	parsed, err := theme.Parse([]byte(managerTestTheme))
	require.NoError(t, err)
	m.theme = parsed

	if profile != "" {
		disp.Call(func() {
			require.True(t, m.SetProfile(profile))
		})
	}

	return &managerFixture{disp: disp, bus: bus, store: store, m: m}, motor
}

func TestHaptic_PublishedWithVibraDevice(t *testing.T) {
	f, _ := newHapticFixture(t, "")
	assert.NotNil(t, f.m.Haptic())
}

func TestHaptic_AbsentWithoutDevice(t *testing.T) {
	f := newManagerFixture(t, nil)
	assert.Nil(t, f.m.Haptic())
}

func TestHaptic_ForceHapticDebugFlag(t *testing.T) {
	disp := runDispatcher(t)
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	m := NewManager(disp, store, newFakeBus(), nil, nil, nil, DebugForceHaptic)
	assert.NotNil(t, m.Haptic())
}

func TestHaptic_VibratePlaysPattern(t *testing.T) {
	f, motor := newHapticFixture(t, "")

	f.disp.Call(func() {
		ok := f.m.Haptic().Vibrate("org.example.app", []PatternStep{
			{Magnitude: 1.0, Duration: 500},
			{Magnitude: 0.0, Duration: 100},
			{Magnitude: 0.5, Duration: 500},
		})
		assert.True(t, ok)
	})

	f.disp.Call(func() {
		assert.Equal(t, []float64{1.0}, motor.rumbleMagnitudes(),
			"first step plays immediately, pauses don't rumble")
	})
}

func TestHaptic_EmptyPatternCancels(t *testing.T) {
	f, motor := newHapticFixture(t, "")

	f.disp.Call(func() {
		require.True(t, f.m.Haptic().Vibrate("app", []PatternStep{
			{Magnitude: 1.0, Duration: 5000},
		}))
	})
	f.disp.Call(func() {
		assert.True(t, f.m.Haptic().Vibrate("app", nil))
	})

	f.disp.Call(func() {
		assert.GreaterOrEqual(t, motor.stopCount(), 1)
		assert.Nil(t, f.m.Haptic().current)
	})
}

func TestHaptic_ReplaceInFlightPattern(t *testing.T) {
	f, motor := newHapticFixture(t, "")

	f.disp.Call(func() {
		require.True(t, f.m.Haptic().Vibrate("app-a", []PatternStep{
			{Magnitude: 1.0, Duration: 5000},
		}))
	})
	f.disp.Call(func() {
		// Most recent caller wins the motor
		require.True(t, f.m.Haptic().Vibrate("app-b", []PatternStep{
			{Magnitude: 0.3, Duration: 100},
		}))
	})

	f.disp.Call(func() {
		assert.GreaterOrEqual(t, motor.stopCount(), 1, "first pattern must be stopped")
		magnitudes := motor.rumbleMagnitudes()
		assert.InDelta(t, 0.3, magnitudes[len(magnitudes)-1], 0.001)
	})
}

func TestHaptic_DeniedWhileEventHoldsMotor(t *testing.T) {
	f, motor := newHapticFixture(t, "")
	motor.mu.Lock()
	motor.busy = true
	motor.mu.Unlock()

	f.disp.Call(func() {
		ok := f.m.Haptic().Vibrate("app", []PatternStep{{Magnitude: 1.0, Duration: 100}})
		assert.False(t, ok)
	})
}

func TestHaptic_GatedAtSilent(t *testing.T) {
	f, motor := newHapticFixture(t, "silent")

	f.disp.Call(func() {
		ok := f.m.Haptic().Vibrate("app", []PatternStep{{Magnitude: 1.0, Duration: 100}})
		assert.False(t, ok)
	})
	assert.Empty(t, motor.rumbleMagnitudes())
}

func TestHaptic_BuildPatternLimits(t *testing.T) {
	var steps []PatternStep
	for i := 0; i < 15; i++ {
		steps = append(steps, PatternStep{Magnitude: 2.0, Duration: 50000})
	}

	magnitudes, durations, ok := buildPattern(steps)
	require.True(t, ok)
	assert.Len(t, magnitudes, hapticMaxSteps)
	assert.Len(t, durations, hapticMaxSteps)
	for i := range magnitudes {
		assert.InDelta(t, 1.0, magnitudes[i], 0.001, "magnitude clamped")
		assert.EqualValues(t, hapticMaxLenMS, durations[i], "duration clamped")
	}

	_, _, ok = buildPattern(nil)
	assert.False(t, ok)
}
