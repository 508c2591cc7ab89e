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

package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTheme places a theme file into dir the way the search path
// expects it.
func writeTheme(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, themeSubdir, name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func simpleTheme(name, parent, event string) string {
	parentField := ""
	if parent != "" {
		parentField = fmt.Sprintf("%q: %q,", "parent-name", parent)
	}
	return fmt.Sprintf(`{"name": %q, %s "profiles": [
		{"name": "full", "feedbacks": [{"event-name": %q, "type": "Dummy"}]}]}`,
		name, parentField, event)
}

func TestExpander_DefaultFallback(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "default", simpleTheme("default", "", "bell"))

	e := &Expander{DataDirs: []string{dataDir}}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "default", theme.Name)
	assert.NotNil(t, theme.Lookup(LevelFull, "bell"))
}

func TestExpander_MissingDefaultIsError(t *testing.T) {
	e := &Expander{DataDirs: []string{t.TempDir()}}
	_, err := e.Load()
	assert.ErrorIs(t, err, ErrThemeMissing)
}

func TestExpander_ConfigDirWins(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	writeTheme(t, configDir, "default", simpleTheme("default-user", "", "bell"))
	writeTheme(t, dataDir, "default", simpleTheme("default-system", "", "bell"))

	e := &Expander{ConfigDir: configDir, DataDirs: []string{dataDir}}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "default-user", theme.Name)
}

func TestExpander_DeviceThemeBeatsDefault(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "default", simpleTheme("default", "", "bell"))
	writeTheme(t, dataDir, "acme,phone", simpleTheme("acme,phone", "", "ring"))

	e := &Expander{
		Compatibles: []string{"acme,phone-pro", "acme,phone"},
		DataDirs:    []string{dataDir},
	}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "acme,phone", theme.Name)
}

func TestExpander_CustomNameBeatsDevice(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "default", simpleTheme("default", "", "bell"))
	writeTheme(t, dataDir, "acme,phone", simpleTheme("acme,phone", "", "ring"))
	writeTheme(t, dataDir, "custom", simpleTheme("custom", "", "chime"))

	e := &Expander{
		Compatibles: []string{"acme,phone"},
		ThemeName:   "custom",
		DataDirs:    []string{dataDir},
	}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "custom", theme.Name)
}

func TestExpander_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(path, []byte(simpleTheme("override", "", "bell")), 0644))

	e := &Expander{ThemeFile: path, DataDirs: []string{t.TempDir()}}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.Equal(t, "override", theme.Name)
}

func TestExpander_ParentChainShadowing(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "base", `{"name": "base", "profiles": [
		{"name": "full", "feedbacks": [
			{"event-name": "bell", "type": "Sound", "effect": "bell-base"},
			{"event-name": "alarm", "type": "Sound", "effect": "alarm-base"}]}]}`)
	writeTheme(t, dataDir, "child", `{"name": "child", "parent-name": "base",
		"profiles": [{"name": "full", "feedbacks": [
			{"event-name": "bell", "type": "Sound", "effect": "bell-child"}]}]}`)

	e := &Expander{ThemeName: "child", DataDirs: []string{dataDir}}
	theme, err := e.Load()
	require.NoError(t, err)

	assert.Equal(t, "child", theme.Name)
	assert.Equal(t, "bell-child", theme.Lookup(LevelFull, "bell").Spec.(SoundSpec).Effect)
	assert.Equal(t, "alarm-base", theme.Lookup(LevelFull, "alarm").Spec.(SoundSpec).Effect)
}

func TestExpander_DeviceParentAlias(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "acme,phone", simpleTheme("acme,phone", "", "ring"))
	writeTheme(t, dataDir, "custom", simpleTheme("custom", DeviceParent, "chime"))

	e := &Expander{
		Compatibles: []string{"acme,phone"},
		ThemeName:   "custom",
		DataDirs:    []string{dataDir},
	}
	theme, err := e.Load()
	require.NoError(t, err)

	assert.NotNil(t, theme.Lookup(LevelFull, "chime"))
	assert.NotNil(t, theme.Lookup(LevelFull, "ring"))
}

func TestExpander_DeviceParentWithoutDeviceTheme(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "custom", simpleTheme("custom", DeviceParent, "chime"))

	e := &Expander{ThemeName: "custom", DataDirs: []string{dataDir}}
	theme, err := e.Load()
	require.NoError(t, err)
	assert.NotNil(t, theme.Lookup(LevelFull, "chime"))
}

func TestExpander_CycleRejected(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "a", simpleTheme("a", "b", "x"))
	writeTheme(t, dataDir, "b", simpleTheme("b", "a", "y"))

	e := &Expander{ThemeName: "a", DataDirs: []string{dataDir}}
	_, err := e.Load()
	assert.ErrorIs(t, err, ErrThemeCycle)
}

func TestExpander_DepthCap(t *testing.T) {
	dataDir := t.TempDir()
	for i := 0; i < 12; i++ {
		parent := fmt.Sprintf("t%d", i+1)
		writeTheme(t, dataDir, fmt.Sprintf("t%d", i),
			simpleTheme(fmt.Sprintf("t%d", i), parent, fmt.Sprintf("e%d", i)))
	}

	e := &Expander{ThemeName: "t0", DataDirs: []string{dataDir}}
	_, err := e.Load()
	assert.ErrorIs(t, err, ErrThemeCycle)
}

func TestExpander_MissingParentIsError(t *testing.T) {
	dataDir := t.TempDir()
	writeTheme(t, dataDir, "orphan", simpleTheme("orphan", "nowhere", "x"))

	e := &Expander{ThemeName: "orphan", DataDirs: []string{dataDir}}
	_, err := e.Load()
	assert.ErrorIs(t, err, ErrThemeMissing)
}
