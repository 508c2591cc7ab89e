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

import "fmt"

// LedColor classifies what a LED feedback asks for and what a LED device
// can emit. Flash marks camera flash LEDs which are never picked as a
// fallback for notification blinking.
type LedColor int

const (
	LedColorWhite LedColor = iota
	LedColorRed
	LedColorGreen
	LedColorBlue
	LedColorFlash
	LedColorRGB
)

// RGB is an 8-bit-per-channel color used with multicolor LEDs
type RGB struct {
	R, G, B uint8
}

// String returns the color name as used in theme files
func (c LedColor) String() string {
	switch c {
	case LedColorWhite:
		return "white"
	case LedColorRed:
		return "red"
	case LedColorGreen:
		return "green"
	case LedColorBlue:
		return "blue"
	case LedColorFlash:
		return "flash"
	case LedColorRGB:
		return "rgb"
	default:
		return "unknown"
	}
}

// ParseLedColor parses a theme color string: one of the well-known
// names or a "#RRGGBB" hex triplet.
func ParseLedColor(s string) (LedColor, RGB, error) {
	switch s {
	case "white":
		return LedColorWhite, RGB{255, 255, 255}, nil
	case "red":
		return LedColorRed, RGB{R: 255}, nil
	case "green":
		return LedColorGreen, RGB{G: 255}, nil
	case "blue":
		return LedColorBlue, RGB{B: 255}, nil
	}

	rgb, err := parseHexColor(s)
	if err != nil {
		return LedColorWhite, RGB{}, err
	}
	return LedColorRGB, rgb, nil
}

func parseHexColor(s string) (RGB, error) {
	if len(s) != len("#RRGGBB") || s[0] != '#' {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		hi, err := hexNibble(s[1+2*i])
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		lo, err := hexNibble(s[2+2*i])
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		channels[i] = hi<<4 | lo
	}

	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

func hexNibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("bad hex digit %q", c)
}
