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
	"time"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/feedback"
	"github.com/we-are-mono/thrum/theme"
)

// EventState is the lifecycle state of a triggered event
type EventState int

const (
	EventStateNone EventState = iota
	EventStateRunning
	EventStateEnded
	EventStateErrored
)

// Event aggregates the feedbacks running for one trigger. It tracks
// which feedbacks still run, applies the timeout and reports once when
// everything ended. All methods run on the dispatcher.
type Event struct {
	id       uint32
	appID    string
	name     string
	sender   string
	timeoutS int32

	state     EventState
	endReason feedback.EndReason
	ending    bool

	feedbacks []feedback.Feedback
	running   int

	timer *dispatch.Timer
	disp  *dispatch.Dispatcher
	log   logger.Logger

	// onEnded fires exactly once, after the last feedback completed
	onEnded func(*Event)
}

func newEvent(id uint32, appID, name, sender string, timeoutS int32, disp *dispatch.Dispatcher) *Event {
	if timeoutS < -1 {
		timeoutS = -1
	}
	return &Event{
		id:       id,
		appID:    appID,
		name:     name,
		sender:   sender,
		timeoutS: timeoutS,
		disp:     disp,
		log: logger.Component("event").With(
			logger.Field{Key: "id", Value: id},
			logger.Field{Key: "event", Value: name}),
	}
}

// ID returns the server-allocated event id
func (e *Event) ID() uint32 { return e.id }

// Sender returns the bus name the trigger came from
func (e *Event) Sender() string { return e.sender }

// Name returns the triggering event name
func (e *Event) Name() string { return e.name }

// State returns the event lifecycle state
func (e *Event) State() EventState { return e.state }

// EndReason returns the strongest end cause seen so far
func (e *Event) EndReason() feedback.EndReason { return e.endReason }

// AddFeedback attaches a feedback and installs the completion hook
func (e *Event) AddFeedback(fb feedback.Feedback) {
	fb.SetDone(func(reason feedback.EndReason) {
		e.onFeedbackDone(fb, reason)
	})
	e.feedbacks = append(e.feedbacks, fb)
}

// Feedbacks returns the attached feedbacks
func (e *Event) Feedbacks() []feedback.Feedback {
	return e.feedbacks
}

// RunFeedbacks starts every attached feedback and arms the timeout.
// Returns how many feedbacks actually started.
func (e *Event) RunFeedbacks() int {
	for _, fb := range e.feedbacks {
		if fb.Run() {
			e.running++
		}
	}

	if e.running == 0 {
		return 0
	}

	e.state = EventStateRunning
	if e.timeoutS > 0 {
		e.timer = e.disp.AfterFunc(time.Duration(e.timeoutS)*time.Second, e.onTimeout)
	}
	return e.running
}

func (e *Event) onTimeout() {
	e.timer = nil
	e.log.Debug("Event timeout expired")
	e.end(feedback.ReasonExpired)
}

// EndFeedbacks stops all running feedbacks on explicit request
func (e *Event) EndFeedbacks() {
	e.end(feedback.ReasonExplicit)
}

func (e *Event) end(reason feedback.EndReason) {
	if e.state != EventStateRunning || e.ending {
		return
	}
	e.ending = true
	e.endReason = feedback.StrongerReason(e.endReason, reason)

	// End() may complete feedbacks synchronously via onFeedbackDone,
	// walk a copy of the list.
	for _, fb := range append([]feedback.Feedback(nil), e.feedbacks...) {
		fb.End()
	}
}

// EndFeedbacksByLevel ends the feedbacks drawn from profile slices
// above level, used when the active profile drops.
func (e *Event) EndFeedbacksByLevel(level theme.Level) {
	if e.state != EventStateRunning {
		return
	}

	for _, fb := range append([]feedback.Feedback(nil), e.feedbacks...) {
		if fb.Level() > level {
			fb.End()
		}
	}
}

// onFeedbackDone collects a feedback completion. With timeout 0 the
// event loops: naturally finished feedbacks are restarted until the
// event is ended explicitly.
func (e *Event) onFeedbackDone(fb feedback.Feedback, reason feedback.EndReason) {
	if e.state != EventStateRunning {
		e.log.Warn("Feedback ended for inactive event")
		return
	}

	if e.timeoutS == 0 && !e.ending && reason == feedback.ReasonNatural {
		if fb.Run() {
			return
		}
	}

	e.endReason = feedback.StrongerReason(e.endReason, reason)
	e.running--
	if e.running > 0 {
		return
	}

	e.finish()
}

func (e *Event) finish() {
	e.state = EventStateEnded
	e.timer.Stop()
	e.timer = nil

	e.log.Debug("All feedbacks finished",
		logger.Field{Key: "reason", Value: e.endReason.String()})

	if e.onEnded != nil {
		e.onEnded(e)
	}
}
