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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/we-are-mono/thrum/daemon/logger"
)

const (
	udevDataDir = "/run/udev/data"

	// UdevTypeProperty is the udev property opting a device into
	// feedback use; the packaged udev rules set it.
	UdevTypeProperty = "FEEDBACKD_TYPE"
	UdevTypeLed      = "led"
	UdevTypeVibra    = "vibra"
)

// ErrNoVibra means no marked force-feedback device was found
var ErrNoVibra = errors.New("no vibra capable device found")

// UdevProperty looks up a udev property of a sysfs device from the udev
// database. subsystem and name identify the device the way udev keys
// its db files for devices without a device node ("+leds:white:status").
func UdevProperty(dataDir, subsystem, name, key string) (string, bool) {
	return udevDbProperty(filepath.Join(dataDir, "+"+subsystem+":"+name), key)
}

// UdevPropertyByDevNum looks up a udev property keyed by character
// device number ("c13:68"), the db form used for devices with a node.
func UdevPropertyByDevNum(dataDir, devnum, key string) (string, bool) {
	return udevDbProperty(filepath.Join(dataDir, "c"+devnum), key)
}

func udevDbProperty(path, key string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	prefix := "E:" + key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, prefix) {
			return line[len(prefix):], true
		}
	}
	return "", false
}

// VibraConfig points vibra discovery at the right places, overridable
// for tests.
type VibraConfig struct {
	SysfsDir    string // defaults to /sys/class/input
	DevDir      string // defaults to /dev/input
	UdevDataDir string // defaults to /run/udev/data
}

// FindVibraDevnode scans the input subsystem for an event node marked
// FEEDBACKD_TYPE=vibra and returns its device node path.
func FindVibraDevnode(config VibraConfig) (string, error) {
	if config.SysfsDir == "" {
		config.SysfsDir = "/sys/class/input"
	}
	if config.DevDir == "" {
		config.DevDir = "/dev/input"
	}
	if config.UdevDataDir == "" {
		config.UdevDataDir = udevDataDir
	}

	entries, err := os.ReadDir(config.SysfsDir)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate input devices: %w", err)
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}

		devnum, err := sysfsAttr(filepath.Join(config.SysfsDir, entry.Name()), "dev")
		if err != nil {
			continue
		}
		value, ok := UdevPropertyByDevNum(config.UdevDataDir, devnum, UdevTypeProperty)
		if !ok || value != UdevTypeVibra {
			continue
		}

		return filepath.Join(config.DevDir, entry.Name()), nil
	}

	return "", ErrNoVibra
}

// DeviceEvent is one kernel uevent
type DeviceEvent struct {
	Action     string // add, remove, change
	DevPath    string
	Subsystem  string
	Properties map[string]string
}

// DevNode returns the /dev path of the event's device, empty when the
// device has no node.
func (e DeviceEvent) DevNode() string {
	if name := e.Properties["DEVNAME"]; name != "" {
		return filepath.Join("/dev", name)
	}
	return ""
}

// Monitor listens for kernel uevents so hotplugged feedback hardware is
// picked up at runtime.
type Monitor struct {
	fd     int
	events chan DeviceEvent
	log    logger.Logger
}

// NewMonitor opens the kernel uevent netlink socket and starts the
// reader goroutine.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC,
		unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("failed to open uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1, // kernel uevent broadcast group
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to bind uevent socket: %w", err)
	}

	m := &Monitor{
		fd:     fd,
		events: make(chan DeviceEvent, 16),
		log:    logger.Component("uevent"),
	}
	go m.read()
	return m, nil
}

// Events delivers uevents until Close. The channel is closed on
// shutdown or read error.
func (m *Monitor) Events() <-chan DeviceEvent {
	return m.events
}

// Close shuts the monitor down
func (m *Monitor) Close() {
	unix.Close(m.fd)
}

func (m *Monitor) read() {
	defer close(m.events)

	buf := make([]byte, 4096)
	for {
		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if err != unix.EBADF {
				m.log.Warn("uevent read failed",
					logger.Field{Key: "error", Value: err.Error()})
			}
			return
		}

		event, ok := parseUevent(buf[:n])
		if !ok {
			continue
		}
		select {
		case m.events <- event:
		default:
			// Slow consumer, drop rather than stall the socket
		}
	}
}

// parseUevent decodes "action@devpath\0KEY=VALUE\0..." datagrams.
// Messages with a libudev header (udevd rebroadcasts) are skipped, the
// kernel group carries everything needed.
func parseUevent(data []byte) (DeviceEvent, bool) {
	if strings.HasPrefix(string(data), "libudev") {
		return DeviceEvent{}, false
	}

	parts := strings.Split(string(data), "\x00")
	if len(parts) == 0 || !strings.Contains(parts[0], "@") {
		return DeviceEvent{}, false
	}

	header := strings.SplitN(parts[0], "@", 2)
	event := DeviceEvent{
		Action:     header[0],
		DevPath:    header[1],
		Properties: make(map[string]string),
	}

	for _, part := range parts[1:] {
		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			event.Properties[kv[0]] = kv[1]
		}
	}
	event.Subsystem = event.Properties["SUBSYSTEM"]

	return event, true
}
