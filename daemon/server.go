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
	"fmt"

	"github.com/we-are-mono/thrum/daemon/dispatch"
	"github.com/we-are-mono/thrum/daemon/logger"
	"github.com/we-are-mono/thrum/dev"
	"github.com/we-are-mono/thrum/settings"
)

// Config carries the daemon startup options
type Config struct {
	// Replace asks the current name owner to yield
	Replace bool
	// SettingsPath overrides the settings file location
	SettingsPath string
}

// Server ties the daemon together: dispatcher, settings store, devices,
// manager and bus service.
type Server struct {
	config  Config
	disp    *dispatch.Dispatcher
	store   *settings.Store
	manager *Manager
	service *Service
	monitor *dev.Monitor
	log     logger.Logger
}

// NewServer discovers the feedback hardware, loads the theme and
// prepares the bus service. A missing theme (including default) is a
// fatal error; missing hardware is not.
func NewServer(config Config) (*Server, error) {
	s := &Server{
		config: config,
		disp:   dispatch.New(),
		log:    logger.Component("server"),
	}

	path := config.SettingsPath
	if path == "" {
		path = settings.DefaultPath()
	}
	store, err := settings.Open(path)
	if err != nil {
		return nil, err
	}
	s.store = store

	service, err := NewService(s.disp)
	if err != nil {
		return nil, err
	}
	s.service = service

	var vibra VibraDevice
	if v := s.openVibra(); v != nil {
		vibra = v
	}
	leds := s.openLeds()
	var sound SoundDevice
	if snd := s.openSound(); snd != nil {
		sound = snd
	}

	s.manager = NewManager(s.disp, store, service, vibra, leds, sound, ParseDebugFlags())
	if err := s.manager.LoadTheme(); err != nil {
		service.Close()
		return nil, err
	}

	service.SetManager(s.manager)
	if err := service.Export(s.manager.Haptic() != nil); err != nil {
		service.Close()
		return nil, err
	}

	service.OnNameLost(s.Stop)

	if err := store.Watch(s.onSettingsChanged); err != nil {
		s.log.Warn("Settings changes will need a restart",
			logger.Field{Key: "error", Value: err.Error()})
	}

	s.watchHotplug()
	return s, nil
}

func (s *Server) openVibra() *dev.Vibra {
	devnode, err := dev.FindVibraDevnode(dev.VibraConfig{})
	if err != nil {
		s.log.Debug("No vibra capable device found")
		return nil
	}

	vibra, err := dev.OpenVibra(devnode)
	if err != nil {
		s.log.Warn("Failed to init vibra device",
			logger.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return vibra
}

func (s *Server) openLeds() *dev.Leds {
	leds, err := dev.NewLeds(dev.LedsConfig{})
	if err != nil {
		s.log.Debug("Failed to init leds device",
			logger.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return leds
}

func (s *Server) openSound() *dev.Sound {
	sound, err := dev.NewSound()
	if err != nil {
		s.log.Warn("Failed to init sound device",
			logger.Field{Key: "error", Value: err.Error()})
		return nil
	}
	return sound
}

// onSettingsChanged forwards watcher callbacks into the dispatcher
func (s *Server) onSettingsChanged(changed settings.Settings) {
	s.disp.Post(func() {
		s.manager.SettingsChanged(changed)
	})
}

// watchHotplug follows input subsystem uevents so a vibra motor
// appearing or vanishing at runtime is picked up.
func (s *Server) watchHotplug() {
	monitor, err := dev.NewMonitor()
	if err != nil {
		s.log.Debug("Device hotplug unavailable",
			logger.Field{Key: "error", Value: err.Error()})
		return
	}
	s.monitor = monitor

	go func() {
		for event := range monitor.Events() {
			if event.Subsystem != "input" {
				continue
			}
			if event.Action != "add" && event.Action != "remove" {
				continue
			}
			s.disp.Post(s.rescanVibra)
		}
	}()
}

// rescanVibra reconciles the vibra device with the current hardware
func (s *Server) rescanVibra() {
	devnode, err := dev.FindVibraDevnode(dev.VibraConfig{})

	current := ""
	if s.manager.vibra != nil {
		current = s.manager.vibra.DevNode()
	}

	switch {
	case err != nil && current != "":
		s.log.Debug("Vibra device removed", logger.Field{Key: "devnode", Value: current})
		s.manager.VibraChanged(nil)
	case err == nil && devnode != current:
		vibra, err := dev.OpenVibra(devnode)
		if err != nil {
			s.log.Warn("Failed to init hotplugged vibra device",
				logger.Field{Key: "error", Value: err.Error()})
			return
		}
		s.log.Debug("Found hotplugged vibra device",
			logger.Field{Key: "devnode", Value: devnode})
		s.manager.VibraChanged(vibra)
	}
}

// Start acquires the bus name and runs the dispatcher loop. It blocks
// until Stop.
func (s *Server) Start() error {
	if err := s.service.RequestName(s.config.Replace); err != nil {
		return fmt.Errorf("failed to acquire bus name: %w", err)
	}

	s.log.Info("Daemon running")
	s.disp.Run()
	return nil
}

// Stop cancels all events, releases the devices and quits the loop
func (s *Server) Stop() {
	s.disp.Call(func() {
		s.manager.Shutdown()
	})

	if s.monitor != nil {
		s.monitor.Close()
	}
	s.store.Close()
	s.service.Close()
	s.disp.Stop()
}

// Reload reloads the theme, triggered by SIGHUP. In-flight events keep
// their feedbacks.
func (s *Server) Reload() {
	s.disp.Post(func() {
		if err := s.manager.LoadTheme(); err != nil {
			s.log.Warn("Theme reload failed",
				logger.Field{Key: "error", Value: err.Error()})
		}
	})
}
