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

	"github.com/spf13/cobra"

	"github.com/we-are-mono/thrum/client"
)

var endCmd = &cobra.Command{
	Use:   "end <id>",
	Short: "End a running feedback event",
	Args:  cobra.ExactArgs(1),
	Run:   runEnd,
}

func init() {
	rootCmd.AddCommand(endCmd)
}

func runEnd(cmd *cobra.Command, args []string) {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Invalid event id %q\n", args[0])
		os.Exit(1)
	}

	c, err := client.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.EndFeedback(uint32(id)); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Event %d ended\n", id)
}
