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

package dispatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	d := New()
	go d.Run()
	t.Cleanup(d.Stop)
	return d
}

func TestDispatcher_PostOrder(t *testing.T) {
	d := runDispatcher(t)

	var order []int
	done := make(chan struct{})

	for i := 1; i <= 3; i++ {
		i := i
		d.Post(func() {
			order = append(order, i)
		})
	}
	d.Post(func() { close(done) })

	<-done
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatcher_CallBlocks(t *testing.T) {
	d := runDispatcher(t)

	value := 0
	d.Call(func() {
		value = 42
	})
	assert.Equal(t, 42, value)
}

func TestDispatcher_AfterFunc(t *testing.T) {
	d := runDispatcher(t)

	fired := make(chan struct{})
	d.Post(func() {
		d.AfterFunc(10*time.Millisecond, func() {
			close(fired)
		})
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestDispatcher_TimerStop(t *testing.T) {
	d := runDispatcher(t)

	var fired atomic.Bool
	d.Call(func() {
		timer := d.AfterFunc(20*time.Millisecond, func() {
			fired.Store(true)
		})
		timer.Stop()
	})

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load(), "stopped timer should not fire")
}

func TestDispatcher_TimerStopIsNilSafe(t *testing.T) {
	var timer *Timer
	require.NotPanics(t, func() { timer.Stop() })
}

func TestDispatcher_PostAfterStop(t *testing.T) {
	d := New()
	go d.Run()
	d.Stop()

	require.NotPanics(t, func() {
		d.Post(func() {})
	})
}
