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

package feedback

import (
	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/theme"
)

// Dummy completes immediately without driving hardware. Themes use it
// to shadow a parent entry with "nothing".
type Dummy struct {
	base
}

func newDummy(level theme.Level, disp *dispatch.Dispatcher) *Dummy {
	return &Dummy{base{disp: disp, level: level}}
}

func (d *Dummy) Available() bool { return true }

// Run schedules completion on the next dispatcher turn, never
// reentrantly.
func (d *Dummy) Run() bool {
	d.state = StateRunning
	d.disp.Post(func() {
		d.finish(ReasonNatural)
	})
	return true
}

func (d *Dummy) End() {
	if d.state == StateRunning {
		d.state = StateEnding
	}
}
