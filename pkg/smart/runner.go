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

// Package smart talks to drive firmware diagnostics: identity and
// rotation queries, the zoned-storage heuristic classifier and the
// non-destructive self-test supervisor. The diagnostic utility output
// is free-form text, so all invocations sit behind the Runner interface
// and the parsers are plain functions over that text.
package smart

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"
)

// TestKind selects a firmware self-test routine.
type TestKind string

// Self-test routines.
const (
	TestShort TestKind = "short"
	TestLong  TestKind = "long"
)

// Runner abstracts the drive diagnostic utility.
type Runner interface {
	// Identity returns the drive identity text (model, serial,
	// rotation rate, zoned capability).
	Identity(ctx context.Context, device string) (string, error)
	// Capabilities returns the capability text carrying self-test
	// execution status.
	Capabilities(ctx context.Context, device string) (string, error)
	// FullReport returns the complete diagnostic report.
	FullReport(ctx context.Context, device string) (string, error)
	// StartSelfTest initiates a firmware self-test routine.
	StartSelfTest(ctx context.Context, device string, kind TestKind) error
}

// ExecRunner runs smartctl.
type ExecRunner struct{}

func (ExecRunner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "smartctl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) > 0 {
		// smartctl signals informational conditions through exit
		// status bits while still printing a usable report.
		klog.V(5).Infof("smartctl %v exited with %v", strings.Join(args, " "), err)
		return string(output), nil
	}
	if err != nil {
		return "", fmt.Errorf("unable to run smartctl %v; %w", strings.Join(args, " "), err)
	}
	return string(output), nil
}

// Identity implements Runner.
func (r ExecRunner) Identity(ctx context.Context, device string) (string, error) {
	return r.run(ctx, "-i", device)
}

// Capabilities implements Runner.
func (r ExecRunner) Capabilities(ctx context.Context, device string) (string, error) {
	return r.run(ctx, "-c", device)
}

// FullReport implements Runner.
func (r ExecRunner) FullReport(ctx context.Context, device string) (string, error) {
	return r.run(ctx, "-a", device)
}

// StartSelfTest implements Runner.
func (r ExecRunner) StartSelfTest(ctx context.Context, device string, kind TestKind) error {
	_, err := r.run(ctx, "-t", string(kind), device)
	return err
}

// Identity fields parsed from the drive identity text.
type Identity struct {
	Family       string
	Model        string
	Serial       string
	RotationRate string
}

// ParseIdentity extracts identity fields from free-form identity text.
// Missing fields stay empty; probes that return nothing never abort the
// pipeline.
func ParseIdentity(text string) Identity {
	var identity Identity
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Model Family":
			identity.Family = value
		case "Device Model", "Model Number":
			identity.Model = value
		case "Serial Number":
			identity.Serial = value
		case "Rotation Rate":
			identity.RotationRate = value
		}
	}
	return identity
}
