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

package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFileYieldsDefaults(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	assert.Equal(t, "full", store.Get().Profile)
	assert.Empty(t, store.Get().Theme)
}

func TestOpen_MalformedFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestSetProfile_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetProfile("quiet"))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "quiet", reopened.Get().Profile)
}

func TestAppProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"profile": "full",
		"applications": {"org-example-app": {"profile": "silent"}}
	}`), 0644))

	store, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "silent", store.AppProfile("org.example.App"))
	assert.Empty(t, store.AppProfile("org.example.Other"))
}

func TestAllowsImportant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"profile": "full",
		"allow-important": ["org.example.Alarm"]
	}`), 0644))

	store, err := Open(path)
	require.NoError(t, err)

	assert.True(t, store.AllowsImportant("org.example.Alarm"))
	assert.False(t, store.AllowsImportant("org.example.Other"))
}

func TestMungeAppID(t *testing.T) {
	assert.Equal(t, "org-example-app", MungeAppID("org.example.App"))
	assert.Equal(t, "simple", MungeAppID("simple"))
	assert.Equal(t, "with-dash", MungeAppID("with-dash"))
	assert.Equal(t, "a-b-c-1", MungeAppID("A_b/C!1"))
}

func TestWatch_ReportsExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	changes := make(chan Settings, 1)
	require.NoError(t, store.Watch(func(s Settings) {
		select {
		case changes <- s:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte(`{"profile": "silent"}`), 0644))

	select {
	case changed := <-changes:
		assert.Equal(t, "silent", changed.Profile)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	assert.Equal(t, "silent", store.Get().Profile)
}
