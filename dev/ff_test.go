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
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestFfEffectLayout(t *testing.T) {
	// struct ff_effect is 48 bytes on 64-bit, the union at offset 16
	assert.EqualValues(t, 48, unsafe.Sizeof(ffEffect{}))
	assert.EqualValues(t, 16, unsafe.Offsetof(ffEffect{}.U))
	assert.EqualValues(t, 24, unsafe.Sizeof(inputEvent{}))
}

func TestIoctlNumbers(t *testing.T) {
	// Known-good values from include/uapi/linux/input.h on 64-bit
	assert.EqualValues(t, 0x40304580, eviocsff())
	assert.EqualValues(t, 0x40044581, eviocrmff())
	// EVIOCGBIT(EV_FF, 16) = _IOC(READ, 'E', 0x20 + 0x15, 16)
	assert.EqualValues(t, 0x80104535, eviocgbit(evFF, 16))
}

func TestEncodeRumble(t *testing.T) {
	var effect ffEffect
	effect.encodeRumble(0x8000, 0x1234)

	assert.EqualValues(t, 0x8000, binary.LittleEndian.Uint16(effect.U[0:]))
	assert.EqualValues(t, 0x1234, binary.LittleEndian.Uint16(effect.U[2:]))
}

func TestEncodePeriodic(t *testing.T) {
	var effect ffEffect
	effect.encodePeriodic(ffSine, 10, 0x4000, 0, ffEnvelope{
		AttackLength: 100,
		AttackLevel:  0x2000,
	})

	assert.EqualValues(t, ffSine, binary.LittleEndian.Uint16(effect.U[0:]))
	assert.EqualValues(t, 10, binary.LittleEndian.Uint16(effect.U[2:]))
	assert.EqualValues(t, 0x4000, binary.LittleEndian.Uint16(effect.U[4:]))
	assert.EqualValues(t, 100, binary.LittleEndian.Uint16(effect.U[10:]))
	assert.EqualValues(t, 0x2000, binary.LittleEndian.Uint16(effect.U[12:]))
}

func TestHasFeature(t *testing.T) {
	var bits [2]uint64
	bits[ffRumble/64] |= 1 << (ffRumble % 64)
	bits[ffGain/64] |= 1 << (ffGain % 64)

	assert.True(t, hasFeature(bits, ffRumble))
	assert.True(t, hasFeature(bits, ffGain))
	assert.False(t, hasFeature(bits, ffPeriodic))
}

func TestScaleMagnitude(t *testing.T) {
	assert.EqualValues(t, 0, scaleMagnitude(-0.5))
	assert.EqualValues(t, 0xFFFF, scaleMagnitude(1.5))
	assert.EqualValues(t, 0x7FFF, scaleMagnitude(0.5))
}

func TestClampDuration(t *testing.T) {
	assert.EqualValues(t, 200, clampDuration(200))
	assert.EqualValues(t, 0xFFFF, clampDuration(100000))
}
