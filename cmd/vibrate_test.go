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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/thrum/daemon"
)

func TestParsePattern(t *testing.T) {
	steps, err := parsePattern("1.0:200,0:50,0.5:300")
	require.NoError(t, err)

	assert.Equal(t, []daemon.PatternStep{
		{Magnitude: 1.0, Duration: 200},
		{Magnitude: 0.0, Duration: 50},
		{Magnitude: 0.5, Duration: 300},
	}, steps)
}

func TestParsePattern_Empty(t *testing.T) {
	steps, err := parsePattern("")
	require.NoError(t, err)
	assert.Nil(t, steps)

	steps, err = parsePattern("   ")
	require.NoError(t, err)
	assert.Nil(t, steps)
}

func TestParsePattern_Errors(t *testing.T) {
	_, err := parsePattern("1.0")
	assert.Error(t, err)

	_, err = parsePattern("x:200")
	assert.Error(t, err)

	_, err = parsePattern("1.0:y")
	assert.Error(t, err)
}
