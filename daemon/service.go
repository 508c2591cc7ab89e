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
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/feedback"
)

// Bus identifiers of the feedback service
const (
	BusName           = "org.sigxcpu.Feedback"
	ObjectPath        = dbus.ObjectPath("/org/sigxcpu/Feedback")
	FeedbackInterface = "org.sigxcpu.Feedback"
	HapticInterface   = "org.sigxcpu.Feedback.Haptic"
)

// ErrNameTaken means the well-known bus name has another owner and
// replacement was not requested (or failed).
var ErrNameTaken = errors.New("bus name already taken")

// Service owns the session bus connection: it exports the Feedback and
// Haptic interfaces, emits signals and watches client names. It is the
// manager's Bus implementation.
type Service struct {
	conn    *dbus.Conn
	disp    *dispatch.Dispatcher
	manager *Manager
	props   *prop.Properties
	log     logger.Logger

	signals chan *dbus.Signal

	mu       sync.Mutex
	watches  map[string]func(string)
	nameLost func()
}

// NewService connects to the session bus
func NewService(disp *dispatch.Dispatcher) (*Service, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	s := &Service{
		conn:    conn,
		disp:    disp,
		log:     logger.Component("service"),
		signals: make(chan *dbus.Signal, 32),
		watches: make(map[string]func(string)),
	}

	conn.Signal(s.signals)
	go s.handleSignals()

	return s, nil
}

// SetManager wires the manager the exported methods dispatch to
func (s *Service) SetManager(m *Manager) {
	s.manager = m
}

// OnNameLost installs the callback invoked when the daemon loses its
// well-known name to a replacement.
func (s *Service) OnNameLost(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nameLost = fn
}

// Export publishes the Feedback interface, and the Haptic interface
// when withHaptic is set.
func (s *Service) Export(withHaptic bool) error {
	if err := s.conn.Export(&feedbackIface{s}, ObjectPath, FeedbackInterface); err != nil {
		return fmt.Errorf("failed to export feedback interface: %w", err)
	}

	props, err := prop.Export(s.conn, ObjectPath, map[string]map[string]*prop.Prop{
		FeedbackInterface: {
			"Profile": {
				Value:    s.manager.Profile(),
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: s.onProfileSet,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}
	s.props = props

	interfaces := []introspect.Interface{feedbackIntrospection}
	if withHaptic {
		if err := s.conn.Export(&hapticIface{s}, ObjectPath, HapticInterface); err != nil {
			return fmt.Errorf("failed to export haptic interface: %w", err)
		}
		interfaces = append(interfaces, hapticIntrospection)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: append([]introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
		}, interfaces...),
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	return nil
}

// RequestName acquires the well-known name. With replace the current
// owner is asked to yield.
func (s *Service) RequestName(replace bool) error {
	flags := dbus.NameFlagAllowReplacement | dbus.NameFlagDoNotQueue
	if replace {
		flags |= dbus.NameFlagReplaceExisting
	}

	reply, err := s.conn.RequestName(BusName, flags)
	if err != nil {
		return fmt.Errorf("failed to request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%w: %s", ErrNameTaken, BusName)
	}

	s.log.Info("Acquired bus name", logger.Field{Key: "name", Value: BusName})
	return nil
}

// Close drops the bus connection
func (s *Service) Close() {
	s.conn.Close()
}

// EmitFeedbackEnded emits the FeedbackEnded signal
func (s *Service) EmitFeedbackEnded(id uint32, reason feedback.EndReason) {
	err := s.conn.Emit(ObjectPath, FeedbackInterface+".FeedbackEnded", id, uint32(reason))
	if err != nil {
		s.log.Warn("Failed to emit FeedbackEnded",
			logger.Field{Key: "id", Value: id},
			logger.Field{Key: "error", Value: err.Error()})
	}
}

// NotifyProfileChanged updates the exported Profile property. The
// update runs off the dispatcher: a bus-initiated property set holds
// the prop table lock while its callback runs, and the prop package
// stores the new value itself once the callback returned.
func (s *Service) NotifyProfileChanged(profile string) {
	if s.props == nil {
		return
	}
	go func() {
		if current, ok := s.props.GetMust(FeedbackInterface, "Profile").(string); ok {
			if current == profile {
				return
			}
		}
		s.props.SetMust(FeedbackInterface, "Profile", profile)
	}()
}

// WatchName watches a client bus name for loss of ownership
func (s *Service) WatchName(name string, vanished func(string)) func() {
	opts := []dbus.MatchOption{
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	}
	if err := s.conn.AddMatchSignal(opts...); err != nil {
		s.log.Warn("Failed to watch client",
			logger.Field{Key: "name", Value: name},
			logger.Field{Key: "error", Value: err.Error()})
		return func() {}
	}

	s.mu.Lock()
	s.watches[name] = vanished
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watches, name)
		s.mu.Unlock()
		s.conn.RemoveMatchSignal(opts...)
	}
}

// handleSignals routes bus signals: client name loss and the daemon's
// own name being replaced.
func (s *Service) handleSignals() {
	for sig := range s.signals {
		switch sig.Name {
		case "org.freedesktop.DBus.NameOwnerChanged":
			if len(sig.Body) != 3 {
				continue
			}
			name, _ := sig.Body[0].(string)
			newOwner, _ := sig.Body[2].(string)
			if newOwner != "" {
				continue
			}

			s.mu.Lock()
			vanished := s.watches[name]
			s.mu.Unlock()
			if vanished != nil {
				vanished(name)
			}
		case "org.freedesktop.DBus.NameLost":
			if len(sig.Body) == 1 && sig.Body[0] == BusName {
				s.log.Info("Lost bus name, shutting down")
				s.mu.Lock()
				nameLost := s.nameLost
				s.mu.Unlock()
				if nameLost != nil {
					nameLost()
				}
			}
		}
	}
}

// onProfileSet handles writes to the Profile property
func (s *Service) onProfileSet(c *prop.Change) *dbus.Error {
	profile, ok := c.Value.(string)
	if !ok {
		return dbus.MakeFailedError(fmt.Errorf("profile must be a string"))
	}

	var valid bool
	s.disp.Call(func() {
		valid = s.manager.SetProfile(profile)
	})
	if !valid {
		return dbus.MakeFailedError(fmt.Errorf("invalid profile %q", profile))
	}
	return nil
}

// feedbackIface exports org.sigxcpu.Feedback
type feedbackIface struct {
	s *Service
}

func (f *feedbackIface) TriggerFeedback(sender dbus.Sender, appID, event string,
	hints map[string]dbus.Variant, timeout int32) (uint32, *dbus.Error) {

	parsed, err := parseHints(hints)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}

	var id uint32
	var terr error
	f.s.disp.Call(func() {
		id, terr = f.s.manager.TriggerFeedback(string(sender), appID, event, parsed, timeout)
	})
	if terr != nil {
		return 0, dbus.MakeFailedError(terr)
	}
	return id, nil
}

func (f *feedbackIface) EndFeedback(id uint32) *dbus.Error {
	f.s.disp.Call(func() {
		f.s.manager.EndFeedback(id)
	})
	return nil
}

// parseHints validates the recognized hint keys, dropping unknown ones
func parseHints(hints map[string]dbus.Variant) (Hints, error) {
	var parsed Hints

	if v, ok := hints["profile"]; ok {
		profile, ok := v.Value().(string)
		if !ok {
			return parsed, fmt.Errorf("%w: hint profile must be a string", ErrInvalidArgument)
		}
		parsed.Profile = profile
	}
	if v, ok := hints["important"]; ok {
		important, ok := v.Value().(bool)
		if !ok {
			return parsed, fmt.Errorf("%w: hint important must be a bool", ErrInvalidArgument)
		}
		parsed.Important = important
	}
	if v, ok := hints["sound-file"]; ok {
		soundFile, ok := v.Value().(string)
		if !ok {
			return parsed, fmt.Errorf("%w: hint sound-file must be a string", ErrInvalidArgument)
		}
		parsed.SoundFile = soundFile
	}

	return parsed, nil
}

// hapticIface exports org.sigxcpu.Feedback.Haptic
type hapticIface struct {
	s *Service
}

func (h *hapticIface) Vibrate(appID string, pattern []PatternStep) *dbus.Error {
	h.s.disp.Call(func() {
		if haptic := h.s.manager.Haptic(); haptic != nil {
			haptic.Vibrate(appID, pattern)
		}
	})
	return nil
}

var feedbackIntrospection = introspect.Interface{
	Name: FeedbackInterface,
	Methods: []introspect.Method{
		{
			Name: "TriggerFeedback",
			Args: []introspect.Arg{
				{Name: "app_id", Type: "s", Direction: "in"},
				{Name: "event", Type: "s", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "EndFeedback",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	},
	Signals: []introspect.Signal{
		{
			Name: "FeedbackEnded",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
	},
	Properties: []introspect.Property{
		{Name: "Profile", Type: "s", Access: "readwrite"},
	},
}

var hapticIntrospection = introspect.Interface{
	Name: HapticInterface,
	Methods: []introspect.Method{
		{
			Name: "Vibrate",
			Args: []introspect.Arg{
				{Name: "app_id", Type: "s", Direction: "in"},
				{Name: "pattern", Type: "a(du)", Direction: "in"},
			},
		},
	},
}
