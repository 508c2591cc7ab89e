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

// Package client provides thin wrappers around the Thrum bus interface
// for the CLI and tests.
package client

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/we-are-mono/thrum/daemon"
)

// Client talks to a running Thrum daemon over the session bus
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// New connects to the session bus
func New() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus (is one running?): %w", err)
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(daemon.BusName, daemon.ObjectPath),
	}, nil
}

// Close drops the connection
func (c *Client) Close() {
	c.conn.Close()
}

// Running reports whether the daemon currently owns its bus name
func (c *Client) Running() (bool, error) {
	var has bool
	err := c.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0,
		daemon.BusName).Store(&has)
	if err != nil {
		return false, err
	}
	return has, nil
}

// TriggerFeedback requests feedback for an event
func (c *Client) TriggerFeedback(appID, event string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	err := c.obj.Call(daemon.FeedbackInterface+".TriggerFeedback", 0,
		appID, event, hints, timeout).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("trigger failed: %w", err)
	}
	return id, nil
}

// EndFeedback ends the event's feedbacks
func (c *Client) EndFeedback(id uint32) error {
	return c.obj.Call(daemon.FeedbackInterface+".EndFeedback", 0, id).Err
}

// Profile reads the active profile
func (c *Client) Profile() (string, error) {
	variant, err := c.obj.GetProperty(daemon.FeedbackInterface + ".Profile")
	if err != nil {
		return "", err
	}
	profile, ok := variant.Value().(string)
	if !ok {
		return "", errors.New("profile property is not a string")
	}
	return profile, nil
}

// SetProfile switches the active profile
func (c *Client) SetProfile(profile string) error {
	return c.obj.SetProperty(daemon.FeedbackInterface+".Profile",
		dbus.MakeVariant(profile))
}

// Vibrate plays a haptic pattern through the Haptic interface
func (c *Client) Vibrate(appID string, pattern []daemon.PatternStep) error {
	return c.obj.Call(daemon.HapticInterface+".Vibrate", 0, appID, pattern).Err
}

// EndedWaiter collects FeedbackEnded signals
type EndedWaiter struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
}

// SubscribeEnded starts listening for FeedbackEnded before triggering,
// so the signal cannot be missed.
func (c *Client) SubscribeEnded() (*EndedWaiter, error) {
	err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface(daemon.FeedbackInterface),
		dbus.WithMatchMember("FeedbackEnded"),
		dbus.WithMatchObjectPath(daemon.ObjectPath),
	)
	if err != nil {
		return nil, err
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)
	return &EndedWaiter{conn: c.conn, signals: signals}, nil
}

// Wait blocks until the event with id ends and returns the end reason
func (w *EndedWaiter) Wait(id uint32) (uint32, error) {
	for sig := range w.signals {
		if sig.Name != daemon.FeedbackInterface+".FeedbackEnded" || len(sig.Body) != 2 {
			continue
		}
		endedID, _ := sig.Body[0].(uint32)
		reason, _ := sig.Body[1].(uint32)
		if endedID == id {
			return reason, nil
		}
	}
	return 0, errors.New("signal stream closed")
}
