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

// Package dispatch provides the single-goroutine event loop the daemon
// runs on. All feedback, event and manager state is confined to the
// dispatcher goroutine; bus handlers, timers and device completions post
// closures into the queue instead of touching state directly.
package dispatch

import (
	"sync"
	"time"
)

// Dispatcher is a serial executor. Everything posted runs on one
// goroutine in FIFO order.
type Dispatcher struct {
	queue chan func()
	quit  chan struct{}

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// New creates a dispatcher. Run must be called before posted work executes.
func New() *Dispatcher {
	return &Dispatcher{
		queue: make(chan func(), 256),
		quit:  make(chan struct{}),
	}
}

// Run processes the queue until Stop is called. It drains work already
// queued at the time of the Stop call.
func (d *Dispatcher) Run() {
	for {
		select {
		case fn := <-d.queue:
			fn()
		case <-d.quit:
			for {
				select {
				case fn := <-d.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Post enqueues fn to run on the dispatcher goroutine. Posting after
// Stop is a no-op.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}

	select {
	case d.queue <- fn:
	case <-d.quit:
	}
}

// Call runs fn on the dispatcher goroutine and blocks until it returned.
// Used by bus method handlers that need a reply value.
func (d *Dispatcher) Call(fn func()) {
	done := make(chan struct{})
	d.Post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-d.quit:
	}
}

// Stop terminates the loop. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	close(d.quit)
}

// Timer is a cancelable timer whose callback runs on the dispatcher.
type Timer struct {
	timer   *time.Timer
	stopped bool
}

// AfterFunc schedules fn to run on the dispatcher after delay.
func (d *Dispatcher) AfterFunc(delay time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(delay, func() {
		d.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}

// Stop cancels the timer. Must be called from the dispatcher goroutine;
// a callback already in flight is suppressed.
func (t *Timer) Stop() {
	if t == nil || t.stopped {
		return
	}
	t.stopped = true
	t.timer.Stop()
}
