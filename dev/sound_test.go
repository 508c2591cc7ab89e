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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/thrum/daemon/logger"
)

func testSound(t *testing.T, dataDirs []string) *Sound {
	t.Helper()

	return &Sound{
		player:    "/bin/true",
		themeName: fallbackSoundTheme,
		dataDirs:  dataDirs,
		inflight:  make(map[interface{}]context.CancelFunc),
		log:       logger.Component("dev-sound"),
	}
}

func writeSoundFile(t *testing.T, dataDir, themeName, effect string) string {
	t.Helper()

	path := filepath.Join(dataDir, "sounds", themeName, "stereo", effect+".oga")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0644))
	return path
}

func TestSound_Locate(t *testing.T) {
	dataDir := t.TempDir()
	want := writeSoundFile(t, dataDir, "freedesktop", "bell")

	s := testSound(t, []string{dataDir})
	got, ok := s.Locate("bell")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = s.Locate("no-such-sound")
	assert.False(t, ok)
}

func TestSound_LocatePrefersConfiguredTheme(t *testing.T) {
	dataDir := t.TempDir()
	writeSoundFile(t, dataDir, "freedesktop", "bell")
	custom := writeSoundFile(t, dataDir, "custom", "bell")

	s := testSound(t, []string{dataDir})
	s.SetTheme("custom")

	got, ok := s.Locate("bell")
	require.True(t, ok)
	assert.Equal(t, custom, got)
}

func TestSound_LocateFallsBackToFreedesktop(t *testing.T) {
	dataDir := t.TempDir()
	fallback := writeSoundFile(t, dataDir, "freedesktop", "bell")

	s := testSound(t, []string{dataDir})
	s.SetTheme("custom")

	got, ok := s.Locate("bell")
	require.True(t, ok)
	assert.Equal(t, fallback, got)
}

func TestSound_PlayMissingEffectReportsNotFound(t *testing.T) {
	s := testSound(t, []string{t.TempDir()})

	results := make(chan PlayResult, 1)
	s.Play("key", "no-such-sound", "", "event", func(result PlayResult) {
		results <- result
	})

	select {
	case result := <-results:
		assert.Equal(t, PlayNotFound, result)
	case <-time.After(time.Second):
		t.Fatal("no completion")
	}
}

func TestSound_SetThemeIgnoresEmpty(t *testing.T) {
	s := testSound(t, nil)
	s.SetTheme("")
	assert.Equal(t, fallbackSoundTheme, s.themeName)
}

func TestPlayerArgs(t *testing.T) {
	args := playerArgs("/usr/bin/paplay", "/tmp/x.oga", "alarm")
	assert.Equal(t, []string{"--property=media.role=alarm", "/tmp/x.oga"}, args)

	args = playerArgs("/usr/bin/pw-play", "/tmp/x.oga", "event")
	assert.Equal(t, []string{"/tmp/x.oga"}, args)
}
