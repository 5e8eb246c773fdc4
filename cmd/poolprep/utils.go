// This file is part of Poolprep
// Copyright (c) 2026 The Poolprep Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
)

func eprintf(quiet, asErr bool, format string, a ...interface{}) {
	if quiet {
		return
	}
	if asErr {
		fmt.Fprintf(os.Stderr, "%v ", color.HiRedString("ERROR"))
	}
	fmt.Fprintf(os.Stderr, format, a...)
}

// getInput reads one line from the operator. Interrupt exits the
// program without side effects.
func getInput(msg string) string {
	prompt := promptui.Prompt{
		Label:    msg,
		Validate: func(string) error { return nil },
	}
	result, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Fprintf(os.Stderr, "Exiting by interrupt\n")
		os.Exit(1)
	}
	return result
}

// confirmChoice presents a binary yes/no choice. Anything but an
// explicit yes is no.
func confirmChoice(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Fprintf(os.Stderr, "Exiting by interrupt\n")
		os.Exit(1)
	}
	return err == nil
}

func printableString(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printableBytes(value uint64) string {
	if value == 0 {
		return "-"
	}
	return humanize.IBytes(value)
}

func newTableWriter(header table.Row) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(os.Stdout)
	writer.AppendHeader(header)
	writer.SetStyle(table.StyleLight)
	return writer
}
