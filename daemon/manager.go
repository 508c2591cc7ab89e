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

// Package daemon implements the Thrum daemon: the feedback manager
// orchestrating events, the haptic manager and the session bus service.
package daemon

import (
	"errors"
	"fmt"
	"os"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/dev"
	"github.com/we-are-mono/thrum/feedback"
	"github.com/we-are-mono/thrum/settings"
	"github.com/we-are-mono/thrum/theme"
)

// ErrInvalidArgument rejects a malformed trigger before an event is
// created.
var ErrInvalidArgument = errors.New("invalid argument")

// Hints are the recognized per-trigger parameters, validated at the
// bus boundary. Unknown hint keys are dropped there.
type Hints struct {
	// Profile is the requested level, only honored upwards for
	// important triggers of allowed apps.
	Profile string
	// Important marks the trigger as allowed to raise the level
	Important bool
	// SoundFile forces a specific sound payload
	SoundFile string
}

// Bus is the signal/watch surface the manager needs from the session
// bus connection.
type Bus interface {
	// EmitFeedbackEnded signals that an event finished
	EmitFeedbackEnded(id uint32, reason feedback.EndReason)
	// NotifyProfileChanged updates the exported Profile property
	NotifyProfileChanged(profile string)
	// WatchName invokes vanished once the bus name loses its owner.
	// The returned func cancels the watch.
	WatchName(name string, vanished func(name string)) func()
}

// VibraDevice is the haptic motor as the manager sees it: the feedback
// protocol plus lifecycle.
type VibraDevice interface {
	feedback.VibraDevice
	DevNode() string
	Close()
}

// SoundDevice is the sound backend as the manager sees it: the feedback
// protocol plus theme switching.
type SoundDevice interface {
	feedback.SoundDevice
	SetTheme(name string)
}

// client tracks one connected application by bus name
type client struct {
	unwatch  func()
	eventIDs map[uint32]bool
}

// Manager processes incoming triggers: it resolves the effective
// profile, selects feedbacks via the theme, runs them as an event and
// routes lifecycle from and to the bus. It exclusively owns the event
// and client tables; every method runs on the dispatcher.
type Manager struct {
	disp  *dispatch.Dispatcher
	store *settings.Store
	bus   Bus
	log   logger.Logger

	level        theme.Level
	theme        *theme.Theme
	themeSetting string
	nextID       uint32

	events  map[uint32]*Event
	clients map[string]*client

	vibra VibraDevice
	leds  *dev.Leds
	sound SoundDevice

	haptic *HapticManager
	flags  DebugFlags
}

// NewManager creates the manager around the given devices. Device
// handles may be nil when the hardware is absent.
func NewManager(disp *dispatch.Dispatcher, store *settings.Store, bus Bus,
	vibra VibraDevice, leds *dev.Leds, sound SoundDevice, flags DebugFlags) *Manager {

	m := &Manager{
		disp:    disp,
		store:   store,
		bus:     bus,
		log:     logger.Component("manager"),
		level:   theme.LevelUnknown,
		nextID:  1,
		events:  make(map[uint32]*Event),
		clients: make(map[string]*client),
		vibra:   vibra,
		leds:    leds,
		sound:   sound,
		flags:   flags,
	}

	if vibra != nil || flags&DebugForceHaptic != 0 {
		m.haptic = newHapticManager(m)
	}

	if sound != nil {
		sound.SetTheme(store.Get().SoundTheme)
	}

	if !m.SetProfile(store.Get().Profile) {
		m.log.Warn("Invalid stored profile, falling back to full",
			logger.Field{Key: "profile", Value: store.Get().Profile})
		m.SetProfile("full")
	}
	return m
}

// Haptic returns the haptic manager, nil without vibration hardware
func (m *Manager) Haptic() *HapticManager {
	return m.haptic
}

// LoadTheme selects and loads the theme per the search order: env
// override, configured name, device themes, default.
func (m *Manager) LoadTheme() error {
	store := m.store.Get()

	expander := theme.NewExpander(theme.DeviceCompatibles(), store.Theme,
		os.Getenv(theme.EnvThemeFile))
	loaded, err := expander.Load()
	if err != nil {
		if m.theme != nil {
			// Keep the active theme on reload failure
			m.log.Warn("Failed to reload theme",
				logger.Field{Key: "error", Value: err.Error()})
			return nil
		}
		return fmt.Errorf("failed to load any theme: %w", err)
	}

	m.theme = loaded
	m.themeSetting = store.Theme
	m.log.Info("Theme loaded", logger.Field{Key: "theme", Value: loaded.Name})
	return nil
}

// Theme returns the active theme
func (m *Manager) Theme() *theme.Theme {
	return m.theme
}

// Profile returns the active profile name
func (m *Manager) Profile() string {
	return m.level.String()
}

// SetProfile switches the active profile. Feedbacks no longer allowed
// at the new level are ended. Returns false for unknown profiles.
func (m *Manager) SetProfile(profile string) bool {
	level := theme.ParseLevel(profile)
	if level == theme.LevelUnknown {
		return false
	}
	if level == m.level {
		return true
	}

	m.log.Debug("Switching profile", logger.Field{Key: "profile", Value: profile})
	m.level = level

	if err := m.store.SetProfile(profile); err != nil {
		m.log.Warn("Failed to persist profile",
			logger.Field{Key: "error", Value: err.Error()})
	}
	m.bus.NotifyProfileChanged(profile)

	for _, event := range m.events {
		event.EndFeedbacksByLevel(level)
	}
	return true
}

// effectiveLevel computes the level used for theme lookup. Per-app
// configuration and hints can only lower the level; the important hint
// of an allowed app wins outright.
func (m *Manager) effectiveLevel(appID string, hintLevel theme.Level, important bool) theme.Level {
	appLevel := theme.LevelFull
	if profile := m.store.AppProfile(appID); profile != "" {
		if level := theme.ParseLevel(profile); level != theme.LevelUnknown {
			appLevel = level
		}
	}

	if important && m.store.AllowsImportant(appID) {
		return hintLevel
	}
	return theme.MinLevel(theme.MinLevel(m.level, appLevel), hintLevel)
}

// devices returns the shared device handles for feedback construction.
// Nil concrete pointers must not end up in non-nil interfaces.
func (m *Manager) devices() feedback.Devices {
	var devs feedback.Devices
	if m.vibra != nil {
		devs.Vibra = m.vibra
	}
	if m.leds != nil {
		devs.Leds = m.leds
	}
	if m.sound != nil {
		devs.Sound = m.sound
	}
	return devs
}

// TriggerFeedback handles one trigger request. It allocates the event
// id, selects and starts the feedbacks and returns immediately; the
// FeedbackEnded signal follows asynchronously. Triggers without any
// matching feedback still allocate an id and end with not-found on the
// next dispatcher turn.
func (m *Manager) TriggerFeedback(sender, appID, eventName string, hints Hints, timeoutS int32) (uint32, error) {
	if appID == "" {
		return 0, fmt.Errorf("%w: empty app id", ErrInvalidArgument)
	}
	if eventName == "" {
		return 0, fmt.Errorf("%w: empty event", ErrInvalidArgument)
	}

	hintLevel := theme.LevelFull
	if hints.Profile != "" {
		hintLevel = theme.ParseLevel(hints.Profile)
		if hintLevel == theme.LevelUnknown {
			return 0, fmt.Errorf("%w: unknown profile %q", ErrInvalidArgument, hints.Profile)
		}
	}

	m.log.Debug("Event triggered",
		logger.Field{Key: "event", Value: eventName},
		logger.Field{Key: "app_id", Value: appID},
		logger.Field{Key: "sender", Value: sender})

	id := m.nextID
	m.nextID++

	event := newEvent(id, appID, eventName, sender, timeoutS, m.disp)
	event.onEnded = m.onEventEnded

	level := m.effectiveLevel(appID, hintLevel, hints.Important)
	m.addEventFeedbacks(event, level, hints.SoundFile)

	if len(event.Feedbacks()) == 0 || event.RunFeedbacks() == 0 {
		// Nothing ran; report not-found on the next turn, never
		// reentrantly.
		m.disp.Post(func() {
			m.bus.EmitFeedbackEnded(id, feedback.ReasonNotFound)
		})
		return id, nil
	}

	m.events[id] = event
	m.watchClient(sender, id)
	return id, nil
}

// addEventFeedbacks selects the feedbacks for the event at level. A
// custom sound file synthesizes a sound feedback and suppresses theme
// sounds; vibra feedbacks preempt the haptic interface but never a
// vibra feedback of another event.
func (m *Manager) addEventFeedbacks(event *Event, level theme.Level, soundFile string) {
	devs := m.devices()
	hasSound := false

	if soundFile != "" && level >= theme.LevelFull && devs.Sound != nil {
		m.log.Debug("Using custom sound file",
			logger.Field{Key: "file", Value: soundFile})
		event.AddFeedback(feedback.NewSoundFile(soundFile, devs.Sound, m.disp))
		hasSound = true
	}

	hasVibra := false
	for _, entry := range m.theme.Resolve(level, event.Name()) {
		fb, err := feedback.New(entry, devs, m.disp)
		if err != nil {
			m.log.Warn("Skipping feedback",
				logger.Field{Key: "event", Value: event.Name()},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}

		if !fb.Available() {
			continue
		}
		if _, ok := fb.(*feedback.Sound); ok && hasSound {
			continue
		}

		// One haptic consumer at a time: skip when another event holds
		// the motor, preempt the direct haptic interface otherwise.
		if isVibraFeedback(fb) {
			// End the haptic pattern first so its loaded effect does
			// not count as another event holding the motor
			if m.haptic != nil {
				m.haptic.EndFeedback()
			}
			if m.vibra != nil && m.vibra.IsBusy() && !hasVibra {
				continue
			}
			hasVibra = true
		}

		event.AddFeedback(fb)
	}
}

func isVibraFeedback(fb feedback.Feedback) bool {
	switch fb.(type) {
	case *feedback.VibraRumble, *feedback.VibraPeriodic, *feedback.VibraPattern:
		return true
	}
	return false
}

// EndFeedback stops the event's feedbacks. Unknown ids are ignored.
func (m *Manager) EndFeedback(id uint32) {
	event, ok := m.events[id]
	if !ok {
		m.log.Debug("Tried to end unknown event",
			logger.Field{Key: "id", Value: id})
		return
	}

	m.log.Debug("Ending feedbacks", logger.Field{Key: "id", Value: id})
	event.EndFeedbacks()
}

// onEventEnded emits the FeedbackEnded signal and drops the event
func (m *Manager) onEventEnded(event *Event) {
	id := event.ID()
	if _, ok := m.events[id]; !ok {
		m.log.Warn("Feedback ended for unknown event",
			logger.Field{Key: "id", Value: id})
		return
	}

	m.bus.EmitFeedbackEnded(id, event.EndReason())
	delete(m.events, id)

	if c, ok := m.clients[event.Sender()]; ok {
		delete(c.eventIDs, id)
	}
}

// watchClient starts watching the sender's bus name on its first event
func (m *Manager) watchClient(sender string, id uint32) {
	if sender == "" {
		return
	}

	c, ok := m.clients[sender]
	if !ok {
		c = &client{eventIDs: make(map[uint32]bool)}
		c.unwatch = m.bus.WatchName(sender, func(name string) {
			m.disp.Post(func() {
				m.clientVanished(name)
			})
		})
		m.clients[sender] = c
	}
	c.eventIDs[id] = true
}

// clientVanished cancels every event owned by the gone bus name
func (m *Manager) clientVanished(name string) {
	c, ok := m.clients[name]
	if !ok {
		return
	}

	m.log.Debug("Client vanished", logger.Field{Key: "name", Value: name})

	// Collect first, ending mutates the event table
	var events []*Event
	for id := range c.eventIDs {
		if event, ok := m.events[id]; ok {
			events = append(events, event)
		}
	}
	for _, event := range events {
		m.log.Debug("Ending event of vanished client",
			logger.Field{Key: "id", Value: event.ID()},
			logger.Field{Key: "event", Value: event.Name()})
		event.EndFeedbacks()
	}

	if c.unwatch != nil {
		c.unwatch()
	}
	delete(m.clients, name)
}

// SettingsChanged applies externally modified settings
func (m *Manager) SettingsChanged(s settings.Settings) {
	m.SetProfile(s.Profile)
	if m.sound != nil {
		m.sound.SetTheme(s.SoundTheme)
	}
	if s.Theme != m.themeSetting {
		if err := m.LoadTheme(); err != nil {
			m.log.Warn("Theme reload failed",
				logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

// VibraChanged swaps the vibra device on hotplug
func (m *Manager) VibraChanged(vibra VibraDevice) {
	if m.vibra != nil {
		m.vibra.Close()
	}
	m.vibra = vibra

	if m.haptic == nil && (vibra != nil || m.flags&DebugForceHaptic != 0) {
		m.haptic = newHapticManager(m)
	}
}

// Shutdown cancels all events and releases the devices
func (m *Manager) Shutdown() {
	var events []*Event
	for _, event := range m.events {
		events = append(events, event)
	}
	for _, event := range events {
		event.EndFeedbacks()
	}

	if m.haptic != nil {
		m.haptic.EndFeedback()
	}
	if m.vibra != nil {
		m.vibra.Close()
		m.vibra = nil
	}
}

// ActiveEvents returns how many events currently run
func (m *Manager) ActiveEvents() int {
	return len(m.events)
}
