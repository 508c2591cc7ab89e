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
	"os"
	"strings"
)

// DebugFlags toggle development behavior via the FBD_DEBUG environment
// variable.
type DebugFlags uint32

const (
	// DebugForceHaptic publishes the Haptic interface even without
	// vibration hardware.
	DebugForceHaptic DebugFlags = 1 << iota
)

// EnvDebug names the environment variable carrying debug tokens
const EnvDebug = "FBD_DEBUG"

// ParseDebugFlags reads debug tokens from the environment, separated by
// commas or colons. Unknown tokens are ignored.
func ParseDebugFlags() DebugFlags {
	return parseDebugString(os.Getenv(EnvDebug))
}

func parseDebugString(value string) DebugFlags {
	var flags DebugFlags
	for _, token := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ':' || r == ' '
	}) {
		switch token {
		case "force-haptic":
			flags |= DebugForceHaptic
		}
	}
	return flags
}
