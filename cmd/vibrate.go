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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/we-are-mono/thrum/client"
	"github.com/we-are-mono/thrum/daemon"
)

var (
	vibratePattern string
	vibrateAppID   string
)

var vibrateCmd = &cobra.Command{
	Use:   "vibrate",
	Short: "Play a haptic pattern through the Haptic interface",
	Long: `Plays a vibration pattern given as magnitude:duration pairs, e.g.
"1.0:200,0:50,0.5:300". An empty pattern ("") cancels the running one.`,
	Run: runVibrate,
}

func init() {
	rootCmd.AddCommand(vibrateCmd)
	vibrateCmd.Flags().StringVarP(&vibratePattern, "pattern", "p", "",
		"Pattern as comma separated magnitude:duration-ms pairs")
	vibrateCmd.Flags().StringVarP(&vibrateAppID, "app-id", "a", "org.sigxcpu.fbcli",
		"Application id to act as")
}

// parsePattern turns "1.0:200,0:50" into pattern steps
func parsePattern(s string) ([]daemon.PatternStep, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var steps []daemon.PatternStep
	for _, part := range strings.Split(s, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid pattern step %q, want magnitude:duration", part)
		}

		magnitude, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid magnitude %q: %w", pair[0], err)
		}
		duration, err := strconv.ParseUint(pair[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", pair[1], err)
		}

		steps = append(steps, daemon.PatternStep{
			Magnitude: magnitude,
			Duration:  uint32(duration),
		})
	}
	return steps, nil
}

func runVibrate(cmd *cobra.Command, args []string) {
	steps, err := parsePattern(vibratePattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	c, err := client.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.Vibrate(vibrateAppID, steps); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}
