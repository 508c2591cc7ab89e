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

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/we-are-mono/thrum/client"
	"github.com/we-are-mono/thrum/feedback"
)

var (
	triggerAppID     string
	triggerTimeout   int32
	triggerProfile   string
	triggerImportant bool
	triggerSoundFile string
	triggerNoWait    bool
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <event>",
	Short: "Trigger feedback for an event",
	Long: `Asks the daemon for feedback for the named event, e.g.
phone-incoming-call, and waits until the feedback ended.`,
	Args: cobra.ExactArgs(1),
	Run:  runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerCmd.Flags().StringVarP(&triggerAppID, "app-id", "a", "org.sigxcpu.fbcli",
		"Application id to act as")
	triggerCmd.Flags().Int32VarP(&triggerTimeout, "timeout", "t", -1,
		"Timeout in seconds (-1: natural length, 0: loop until ended)")
	triggerCmd.Flags().StringVarP(&triggerProfile, "profile", "P", "",
		"Request feedback level via the profile hint")
	triggerCmd.Flags().BoolVarP(&triggerImportant, "important", "i", false,
		"Mark the event as important")
	triggerCmd.Flags().StringVarP(&triggerSoundFile, "sound-file", "s", "",
		"Play this sound file instead of the theme sound")
	triggerCmd.Flags().BoolVar(&triggerNoWait, "no-wait", false,
		"Do not wait for the feedback to end")
}

func runTrigger(cmd *cobra.Command, args []string) {
	c, err := client.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	hints := map[string]dbus.Variant{}
	if triggerProfile != "" {
		hints["profile"] = dbus.MakeVariant(triggerProfile)
	}
	if triggerImportant {
		hints["important"] = dbus.MakeVariant(true)
	}
	if triggerSoundFile != "" {
		hints["sound-file"] = dbus.MakeVariant(triggerSoundFile)
	}

	waiter, err := c.SubscribeEnded()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	id, err := c.TriggerFeedback(triggerAppID, args[0], hints, triggerTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Event %d triggered\n", id)

	if triggerNoWait {
		return
	}

	reason, err := waiter.Wait(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Feedback ended: %s\n", feedback.EndReason(reason))
}
