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

package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Component: "test"},
		[]Backend{NewBufferBackend(&buf, "text")})

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")

	output := buf.String()
	assert.NotContains(t, output, "dropped")
	assert.Contains(t, output, "kept")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Component: "parent"},
		[]Backend{NewBufferBackend(&buf, "text")})

	child := log.With(
		Field{Key: "component", Value: "child"},
		Field{Key: "device", Value: "led0"})
	child.Info("hello")

	output := buf.String()
	assert.Contains(t, output, "[child]")
	assert.Contains(t, output, "device=led0")
	assert.NotContains(t, output, "[parent]")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Component: "test"},
		[]Backend{NewBufferBackend(&buf, "json")})

	log.Info("structured", Field{Key: "id", Value: 7})

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "structured", entry.Message)
	assert.Equal(t, "test", entry.Component)
	assert.Equal(t, "info", entry.Level)
	assert.EqualValues(t, 7, entry.Fields["id"])
}

func TestEntry_ToTextStableFieldOrder(t *testing.T) {
	entry := NewEntry("info", "test", "msg", map[string]interface{}{
		"b": 2, "a": 1, "c": 3,
	})

	text := entry.ToText()
	assert.Contains(t, text, "a=1 b=2 c=3")
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "thrum.log")

	backend, err := NewFileBackend(path, "text")
	require.NoError(t, err)

	require.NoError(t, backend.Write(NewEntry("info", "test", "on disk", nil)))
	require.NoError(t, backend.Close())

	assert.FileExists(t, path)
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")

	backend, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Write(NewEntry("warn", "manager", "stored",
		map[string]interface{}{"id": 3})))

	var count int
	row := backend.db.QueryRow(`SELECT COUNT(*) FROM logs WHERE component = ?`, "manager")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.Equal(t, level, ParseLevel(level).String())
	}
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
