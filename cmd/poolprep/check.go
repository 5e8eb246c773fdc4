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
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/poolprep/poolprep/pkg/badblocks"
	"github.com/poolprep/poolprep/pkg/consts"
	"github.com/poolprep/poolprep/pkg/device"
	"github.com/poolprep/poolprep/pkg/logging"
	"github.com/poolprep/poolprep/pkg/pipeline"
	"github.com/poolprep/poolprep/pkg/smart"
	"github.com/poolprep/poolprep/pkg/wipe"
	"github.com/poolprep/poolprep/pkg/zpool"
	"github.com/spf13/viper"
)

// confirmationToken is the exact string the operator must type before
// any irreversible action runs. Anything else is a decline.
const confirmationToken = "DESTROY DATA"

func confirmDestruction(input string) bool {
	return input == confirmationToken
}

func sessionLogDir() string {
	if dir := viper.GetString("log-dir"); dir != "" {
		return dir
	}
	return consts.DefaultLogDir
}

// runValidation assembles the gate pipeline and runs it. Returning nil
// covers both full success and operator decline; both exit 0.
func runValidation(ctx context.Context, path string, safeMode bool) error {
	log, err := logging.New(os.Stdout, sessionLogDir())
	if err != nil {
		return err
	}
	defer log.Close()
	log.Infof("session log: %v", log.Path())
	if safeMode {
		log.Infof("running in safe mode; no destructive operation will be performed")
	}

	runner := smart.ExecRunner{}
	identifier := device.NewIdentifier()
	checker := zpool.NewChecker()
	classifier := smart.NewClassifier(runner)
	selfTest := smart.NewSupervisor(runner, confirmChoice)
	wiper := wipe.NewWiper()

	// Created by the first stage, read-only afterwards.
	var handle *device.Handle

	stages := []pipeline.Stage{
		{
			Name: "device identification",
			Run: func(_ context.Context) pipeline.Result {
				h, err := identifier.Identify(path)
				if err != nil {
					return pipeline.Halt(err)
				}
				handle = h
				log.Infof("validating %v (%v)", handle.CanonicalPath, humanize.IBytes(handle.Capacity))
				log.Infof("stable identity: %v", handle.StableID)
				return pipeline.Pass()
			},
		},
		{
			Name: "pool membership check",
			Run: func(ctx context.Context) pipeline.Result {
				if err := checker.Check(ctx, handle.StableID); err != nil {
					return pipeline.Halt(err)
				}
				log.Infof("device is not part of any pool")
				return pipeline.Pass()
			},
		},
		{
			Name: "media classification",
			Run: func(ctx context.Context) pipeline.Result {
				result := classifier.Classify(ctx, handle)
				renderClassification(handle, result)
				log.FileOnly("media classification of %v: model=%v rotation=%v mapping=%v",
					handle.CanonicalPath, result.Model, result.RotationRate, result.Mapping)
				if result.Mapping != smart.ConventionalAssumed {
					// Advisory only; shingled drives resilver
					// poorly but the operator decides.
					log.Warnf("device media is %v; expect poor performance in redundant pools", result.Mapping)
				}
				return pipeline.Pass()
			},
		},
		{
			Name: "drive self-test",
			Run: func(ctx context.Context) pipeline.Result {
				if err := selfTest.Run(ctx, handle.CanonicalPath, log); err != nil {
					return pipeline.Halt(err)
				}
				return pipeline.Pass()
			},
		},
		{
			Name: "destructive confirmation",
			Run: func(_ context.Context) pipeline.Result {
				return destructiveGate(handle, safeMode)
			},
		},
		{
			Name: "destructive write test",
			Run: func(_ context.Context) pipeline.Result {
				return runWriteTest(handle, log)
			},
		},
		{
			Name: "signature wipe",
			Run: func(ctx context.Context) pipeline.Result {
				if err := wiper.Wipe(ctx, handle.CanonicalPath, log.FileWriter()); err != nil {
					return pipeline.Halt(err)
				}
				log.Infof("all filesystem and pool signatures erased from %v", handle.CanonicalPath)
				return pipeline.Pass()
			},
		},
	}

	result := pipeline.Run(ctx, log, stages)
	switch result.Outcome {
	case pipeline.Halted:
		return result.Err
	case pipeline.Declined:
		return nil
	}

	log.Infof("device %v passed validation and is ready for pool admission", handle.CanonicalPath)
	return nil
}

// destructiveGate is the safety checkpoint before the two irreversible
// operations. In safe mode it ends the pipeline as a trivial success.
func destructiveGate(handle *device.Handle, safeMode bool) pipeline.Result {
	if safeMode {
		return pipeline.Decline("safe mode selected; skipping destructive write test and signature wipe")
	}

	fmt.Fprintln(os.Stderr, color.HiRedString("The next steps are IRREVERSIBLE:"))
	fmt.Fprintln(os.Stderr, color.HiRedString("  1. a %v-pass destructive write-and-verify test over %v", consts.WritePassCount, handle.CanonicalPath))
	fmt.Fprintln(os.Stderr, color.HiRedString("  2. erasure of every filesystem and pool signature on %v", handle.CanonicalPath))
	fmt.Fprintln(os.Stderr, color.HiRedString("All data on %v will be destroyed.", handle.CanonicalPath))

	input := getInput(color.HiRedString("Type '%v' if you really want to do this", confirmationToken))
	if !confirmDestruction(input) {
		return pipeline.Decline("confirmation declined; no destructive action was taken")
	}
	return pipeline.Pass()
}

// runWriteTest launches the write-and-verify test and supervises it
// with the live progress view. Bad-block findings stream into the
// session log in full.
func runWriteTest(handle *device.Handle, log *logging.Logger) pipeline.Result {
	supervisor := badblocks.NewSupervisor(handle.CanonicalPath, handle.Capacity, log.FileWriter(), nil)
	log.Infof("launching %v; %v will be written in total",
		supervisor.Describe(), humanize.IBytes(supervisor.TotalExpected()))
	log.Infof("progress is sampled every %v; early estimates are unreliable", supervisor.Interval)

	if err := superviseWithProgress(supervisor, log); err != nil {
		return pipeline.Halt(err)
	}
	log.Infof("write test completed with no bad blocks reported")
	return pipeline.Pass()
}

func renderClassification(handle *device.Handle, result smart.Classification) {
	writer := newTableWriter(table.Row{"DEVICE", "MODEL", "ROTATION", "CAPACITY", "MEDIA"})
	writer.AppendRow(table.Row{
		handle.CanonicalPath,
		printableString(result.Model),
		printableString(result.RotationRate),
		printableBytes(handle.Capacity),
		result.Mapping.String(),
	})
	writer.Render()
}
