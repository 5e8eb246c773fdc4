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

// Package pipeline runs the ordered sequence of validation gates. Each
// stage returns a typed result; the driver halts on the first result
// that is not a pass. Operator decline is terminal success, not a
// failure.
package pipeline

import "context"

// Outcome is the typed result class of a stage.
type Outcome int

// Stage outcomes.
const (
	// Passed means the stage succeeded and the next stage may run.
	Passed Outcome = iota
	// Declined means the operator declined an action; the pipeline
	// ends successfully with no further stage running.
	Declined
	// Halted means a fatal condition; the pipeline ends with an error.
	Halted
)

// Result is what a stage run yields.
type Result struct {
	Outcome Outcome
	Message string
	Err     error
}

// Pass reports stage success.
func Pass() Result {
	return Result{Outcome: Passed}
}

// Decline reports that the operator declined; msg explains the safe
// exit to the operator.
func Decline(msg string) Result {
	return Result{Outcome: Declined, Message: msg}
}

// Halt reports a fatal condition.
func Halt(err error) Result {
	return Result{Outcome: Halted, Err: err}
}

// Stage is a single gate of the validation pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Logger is the reporting sink stages and the driver write to.
type Logger interface {
	Infof(format string, a ...interface{})
	Warnf(format string, a ...interface{})
	Errorf(format string, a ...interface{})
}

// Run executes stages in order and halts on the first non-pass result.
// No stage runs after a decline or a halt, and no stage overlaps
// another; the device is acted upon by one stage at a time.
func Run(ctx context.Context, log Logger, stages []Stage) Result {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return Halt(err)
		}
		log.Infof("=== %v ===", stage.Name)
		result := stage.Run(ctx)
		switch result.Outcome {
		case Declined:
			log.Warnf("%v", result.Message)
			return result
		case Halted:
			log.Errorf("%v", result.Err)
			return result
		}
	}
	return Pass()
}
