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
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel force feedback interface, see
// https://www.kernel.org/doc/html/latest/input/ff.html and
// include/uapi/linux/input.h.

const (
	evFF = 0x15

	ffRumble   = 0x50
	ffPeriodic = 0x51
	ffSine     = 0x5a
	ffGain     = 0x60
	ffMax      = 0x7f
)

// ioctl direction/encoding (asm-generic)
const (
	iocWrite = 1
	iocRead  = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

func eviocgbit(ev, length uintptr) uintptr {
	return ioc(iocRead, 'E', 0x20+ev, length)
}

func eviocsff() uintptr {
	return ioc(iocWrite, 'E', 0x80, unsafe.Sizeof(ffEffect{}))
}

func eviocrmff() uintptr {
	return ioc(iocWrite, 'E', 0x81, 4)
}

type ffTrigger struct {
	Button   uint16
	Interval uint16
}

type ffReplay struct {
	Length uint16
	Delay  uint16
}

type ffEnvelope struct {
	AttackLength uint16
	AttackLevel  uint16
	FadeLength   uint16
	FadeLevel    uint16
}

// ffEffect mirrors struct ff_effect. The union is kept as raw bytes and
// encoded per effect type; 32 bytes covers the largest member
// (ff_periodic_effect) on 64-bit.
type ffEffect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   ffTrigger
	Replay    ffReplay
	_         [2]byte // union is 8-byte aligned
	U         [32]byte
}

func (e *ffEffect) encodeRumble(strong, weak uint16) {
	binary.LittleEndian.PutUint16(e.U[0:], strong)
	binary.LittleEndian.PutUint16(e.U[2:], weak)
}

func (e *ffEffect) encodePeriodic(waveform, period uint16, magnitude int16, phase uint16, env ffEnvelope) {
	binary.LittleEndian.PutUint16(e.U[0:], waveform)
	binary.LittleEndian.PutUint16(e.U[2:], period)
	binary.LittleEndian.PutUint16(e.U[4:], uint16(magnitude))
	binary.LittleEndian.PutUint16(e.U[6:], 0) // offset
	binary.LittleEndian.PutUint16(e.U[8:], phase)
	binary.LittleEndian.PutUint16(e.U[10:], env.AttackLength)
	binary.LittleEndian.PutUint16(e.U[12:], env.AttackLevel)
	binary.LittleEndian.PutUint16(e.U[14:], env.FadeLength)
	binary.LittleEndian.PutUint16(e.U[16:], env.FadeLevel)
}

// inputEvent mirrors struct input_event on 64-bit platforms
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func writeInputEvent(fd int, typ, code uint16, value int32) error {
	event := inputEvent{Type: typ, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(inputEvent{})]byte)(unsafe.Pointer(&event))[:]

	if _, err := unix.Write(fd, buf); err != nil {
		return fmt.Errorf("input event write failed: %w", err)
	}
	return nil
}

func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// uploadEffect uploads effect via EVIOCSFF, the kernel assigns the id
func uploadEffect(fd int, effect *ffEffect) error {
	if err := ioctlPtr(fd, eviocsff(), unsafe.Pointer(effect)); err != nil {
		return fmt.Errorf("effect upload failed: %w", err)
	}
	return nil
}

// removeEffect erases an uploaded effect via EVIOCRMFF
func removeEffect(fd int, id int16) error {
	v := int32(id)
	if err := ioctlPtr(fd, eviocrmff(), unsafe.Pointer(&v)); err != nil {
		return fmt.Errorf("effect erase failed: %w", err)
	}
	return nil
}

// ffFeatures probes the EV_FF capability bits of the device
func ffFeatures(fd int) ([2]uint64, error) {
	var bits [2]uint64
	if err := ioctlPtr(fd, eviocgbit(evFF, unsafe.Sizeof(bits)), unsafe.Pointer(&bits)); err != nil {
		return bits, fmt.Errorf("feature probe failed: %w", err)
	}
	return bits, nil
}

func hasFeature(bits [2]uint64, feature uint) bool {
	return bits[feature/64]>>(feature%64)&1 == 1
}
