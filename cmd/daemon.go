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

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/thrum/daemon"
	"github.com/we-are-mono/thrum/daemon/logger"
)

var (
	daemonReplace bool
	daemonVerbose bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the Thrum feedback daemon",
	Long:  `Starts the daemon serving the Feedback interface on the session bus.`,
	Run:   runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().BoolVarP(&daemonReplace, "replace", "r", false,
		"Replace a running daemon instance")
	daemonCmd.Flags().BoolVarP(&daemonVerbose, "verbose", "v", false,
		"Enable debug logging")
}

func runDaemon(cmd *cobra.Command, args []string) {
	pidFile := os.Getenv("THRUM_PID_FILE")
	if pidFile == "" {
		pidFile = defaultPidFile()
	}
	if err := checkExistingDaemon(pidFile); err != nil && !daemonReplace {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	if err := writePIDFile(pidFile); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to write PID file: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(pidFile)

	if err := initializeLogger(daemonVerbose); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	server, err := daemon.NewServer(daemon.Config{Replace: daemonReplace})
	if err != nil {
		logger.Error("Failed to create server", logger.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM, theme reload on SIGHUP
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				logger.Info("Caught SIGHUP, reloading feedback theme")
				server.Reload()
				continue
			}
			logger.Info("Shutting down...")
			server.Stop()
			return
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("Server failed", logger.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}

func defaultPidFile() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/thrum.pid"
	}
	return "/tmp/thrum.pid"
}

// checkExistingDaemon checks if another daemon is already running
func checkExistingDaemon(pidFile string) error {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("PID file exists but cannot be read: %w (remove %s manually if daemon is not running)", err, pidFile)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return fmt.Errorf("invalid PID in %s: %s (remove file manually if daemon is not running)", pidFile, pidStr)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(pidFile)
		return nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		// Stale PID file
		os.Remove(pidFile)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d (stop it first or use --replace)", pid)
}

// writePIDFile writes the current process PID to a file
func writePIDFile(pidFile string) error {
	pid := os.Getpid()
	return os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", pid)), 0600)
}

// initializeLogger sets up the structured logger, preferring journald
// with a stderr fallback; verbose mode always logs to stderr.
func initializeLogger(verbose bool) error {
	config := logger.Config{
		Level:     "info",
		Format:    "text",
		Component: "daemon",
	}
	if verbose {
		config.Level = "debug"
	}

	var backends []logger.Backend

	if _, err := exec.LookPath("systemd-cat"); err == nil && !verbose {
		journaldBackend, err := logger.NewJournaldBackend(config.Format)
		if err == nil {
			backends = append(backends, journaldBackend)
		}
	}
	if len(backends) == 0 {
		backends = append(backends, logger.NewStderrBackend(config.Format))
	}

	// Keep a queryable trail of feedback activity
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		sqliteBackend, err := logger.NewSQLiteBackend(dir + "/thrum/logs.db")
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Could not initialize log database: %v\n", err)
		} else {
			backends = append(backends, sqliteBackend)
		}
	}

	logger.Init(config, backends)
	return nil
}
