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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/feedback"
	"github.com/we-are-mono/thrum/theme"
)

func runDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()

	d := dispatch.New()
	go d.Run()
	t.Cleanup(d.Stop)
	return d
}

// fakeFeedback is a feedback with manually triggered completion
type fakeFeedback struct {
	disp  *dispatch.Dispatcher
	level theme.Level
	state feedback.State
	done  func(feedback.EndReason)

	runOK    bool
	auto     bool // complete right after Run on the next turn
	runCalls int
}

func newFakeFeedback(disp *dispatch.Dispatcher) *fakeFeedback {
	return &fakeFeedback{disp: disp, level: theme.LevelFull, runOK: true}
}

func (f *fakeFeedback) Run() bool {
	if !f.runOK {
		return false
	}
	f.runCalls++
	f.state = feedback.StateRunning
	if f.auto {
		f.disp.Post(func() {
			f.complete(feedback.ReasonNatural)
		})
	}
	return true
}

func (f *fakeFeedback) End() {
	if f.state != feedback.StateRunning {
		return
	}
	f.complete(feedback.ReasonExplicit)
}

func (f *fakeFeedback) complete(reason feedback.EndReason) {
	if f.state != feedback.StateRunning {
		return
	}
	f.state = feedback.StateEnded
	f.done(reason)
}

func (f *fakeFeedback) Available() bool { return true }

func (f *fakeFeedback) Level() theme.Level { return f.level }

func (f *fakeFeedback) SetDone(fn func(feedback.EndReason)) { f.done = fn }

func (f *fakeFeedback) State() feedback.State { return f.state }

// endedRecorder collects onEnded invocations
type endedRecorder struct {
	events []*Event
}

func (r *endedRecorder) record(e *Event) {
	r.events = append(r.events, e)
}

func TestEvent_AggregatesAllFeedbacks(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}

	event := newEvent(1, "app", "bell", ":1.1", -1, disp)
	event.onEnded = rec.record

	fb1 := newFakeFeedback(disp)
	fb2 := newFakeFeedback(disp)
	event.AddFeedback(fb1)
	event.AddFeedback(fb2)

	disp.Call(func() {
		require.Equal(t, 2, event.RunFeedbacks())
	})
	disp.Call(func() {
		fb1.complete(feedback.ReasonNatural)
	})
	disp.Call(func() {
		assert.Empty(t, rec.events, "event must not end before every feedback did")
		fb2.complete(feedback.ReasonNatural)
	})

	disp.Call(func() {
		require.Len(t, rec.events, 1)
		assert.Equal(t, EventStateEnded, event.State())
		assert.Equal(t, feedback.ReasonNatural, event.EndReason())
	})
}

func TestEvent_ExplicitEnd(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}

	event := newEvent(2, "app", "bell", ":1.1", -1, disp)
	event.onEnded = rec.record
	event.AddFeedback(newFakeFeedback(disp))

	disp.Call(func() {
		require.Equal(t, 1, event.RunFeedbacks())
		event.EndFeedbacks()
	})

	disp.Call(func() {
		require.Len(t, rec.events, 1)
		assert.Equal(t, feedback.ReasonExplicit, event.EndReason())
	})
}

func TestEvent_EndIsIdempotent(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}

	event := newEvent(3, "app", "bell", ":1.1", -1, disp)
	event.onEnded = rec.record
	event.AddFeedback(newFakeFeedback(disp))

	disp.Call(func() {
		event.RunFeedbacks()
		event.EndFeedbacks()
		event.EndFeedbacks()
	})

	disp.Call(func() {
		assert.Len(t, rec.events, 1, "FeedbackEnded must fire exactly once")
	})
}

func TestEvent_TimeoutExpires(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}
	ended := make(chan struct{})

	event := newEvent(4, "app", "alarm", ":1.1", 1, disp)
	event.onEnded = func(e *Event) {
		rec.record(e)
		close(ended)
	}
	event.AddFeedback(newFakeFeedback(disp)) // runs until ended

	disp.Call(func() {
		require.Equal(t, 1, event.RunFeedbacks())
	})

	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout did not fire")
	}

	disp.Call(func() {
		assert.Equal(t, feedback.ReasonExpired, event.EndReason())
	})
}

func TestEvent_ExpiredWinsOverExplicit(t *testing.T) {
	disp := runDispatcher(t)

	event := newEvent(5, "app", "bell", ":1.1", -1, disp)
	event.onEnded = func(*Event) {}
	event.AddFeedback(newFakeFeedback(disp))

	disp.Call(func() {
		event.RunFeedbacks()
		// Simulate the timer firing; the explicit End arriving later
		// must not downgrade the reason.
		event.end(feedback.ReasonExpired)
		event.EndFeedbacks()
	})

	disp.Call(func() {
		assert.Equal(t, feedback.ReasonExpired, event.EndReason())
	})
}

func TestEvent_LoopRestartsNaturalCompletions(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}

	event := newEvent(6, "app", "ring", ":1.1", 0, disp)
	event.onEnded = rec.record

	fb := newFakeFeedback(disp)
	event.AddFeedback(fb)

	disp.Call(func() {
		require.Equal(t, 1, event.RunFeedbacks())
	})

	// Let it finish naturally a few times, it has to loop
	for i := 0; i < 3; i++ {
		disp.Call(func() {
			fb.complete(feedback.ReasonNatural)
		})
	}

	disp.Call(func() {
		assert.Empty(t, rec.events, "looping event must not end")
		assert.Greater(t, fb.runCalls, 3)
		event.EndFeedbacks()
	})

	disp.Call(func() {
		require.Len(t, rec.events, 1)
		assert.Equal(t, feedback.ReasonExplicit, event.EndReason())
	})
}

func TestEvent_EndFeedbacksByLevel(t *testing.T) {
	disp := runDispatcher(t)
	rec := &endedRecorder{}

	event := newEvent(7, "app", "ring", ":1.1", -1, disp)
	event.onEnded = rec.record

	full := newFakeFeedback(disp)
	full.level = theme.LevelFull
	silent := newFakeFeedback(disp)
	silent.level = theme.LevelSilent
	event.AddFeedback(full)
	event.AddFeedback(silent)

	disp.Call(func() {
		require.Equal(t, 2, event.RunFeedbacks())
		event.EndFeedbacksByLevel(theme.LevelSilent)
	})

	disp.Call(func() {
		assert.Equal(t, feedback.StateEnded, full.state)
		assert.Equal(t, feedback.StateRunning, silent.state)
		assert.Empty(t, rec.events, "event keeps running on the allowed feedback")

		silent.complete(feedback.ReasonNatural)
	})

	disp.Call(func() {
		require.Len(t, rec.events, 1)
	})
}

func TestEvent_FailedRunCountsAsNothingRan(t *testing.T) {
	disp := runDispatcher(t)

	event := newEvent(8, "app", "bell", ":1.1", -1, disp)
	fb := newFakeFeedback(disp)
	fb.runOK = false
	event.AddFeedback(fb)

	disp.Call(func() {
		assert.Equal(t, 0, event.RunFeedbacks())
		assert.Equal(t, EventStateNone, event.State())
	})
}
