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
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/we-are-mono/thrum/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Inspect feedback theme files",
}

var themeValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a theme file",
	Args:  cobra.ExactArgs(1),
	Run:   runThemeValidate,
}

var themeShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the feedbacks a theme file defines",
	Args:  cobra.ExactArgs(1),
	Run:   runThemeShow,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeValidateCmd)
	themeCmd.AddCommand(themeShowCmd)
}

func runThemeValidate(cmd *cobra.Command, args []string) {
	t, err := theme.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Theme %q is valid\n", t.Name)
}

func runThemeShow(cmd *cobra.Command, args []string) {
	t, err := theme.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Theme: %s\n", t.Name)
	if t.ParentName != "" {
		fmt.Printf("Parent: %s\n", t.ParentName)
	}

	for _, level := range []theme.Level{theme.LevelFull, theme.LevelQuiet, theme.LevelSilent} {
		entries := t.Events(level)
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].EventName < entries[j].EventName
		})

		fmt.Printf("\n[%s]\n", level)
		for _, entry := range entries {
			fmt.Printf("  %-32s %s\n", entry.EventName, entry.Spec.Type())

			if pattern, ok := entry.Spec.(theme.PatternSpec); ok {
				fmt.Println(renderPatternEnvelope(pattern))
			}
		}
	}
}

// renderPatternEnvelope plots a vibra pattern's magnitude over time so
// theme authors can eyeball what it feels like.
func renderPatternEnvelope(pattern theme.PatternSpec) string {
	// One sample per 10ms of pattern time
	var samples []float64
	for i, duration := range pattern.Durations {
		steps := int(duration / 10)
		if steps == 0 {
			steps = 1
		}
		for s := 0; s < steps; s++ {
			samples = append(samples, pattern.Magnitudes[i])
		}
	}

	return asciigraph.Plot(samples,
		asciigraph.Height(4),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("%d ms", pattern.TotalDuration())))
}
