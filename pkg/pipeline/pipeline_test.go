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

package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func recordingStage(name string, ran *[]string, result Result) Stage {
	return Stage{
		Name: name,
		Run: func(_ context.Context) Result {
			*ran = append(*ran, name)
			return result
		},
	}
}

func TestRunAllPass(t *testing.T) {
	var ran []string
	stages := []Stage{
		recordingStage("one", &ran, Pass()),
		recordingStage("two", &ran, Pass()),
		recordingStage("three", &ran, Pass()),
	}
	result := Run(context.Background(), nopLogger{}, stages)
	if result.Outcome != Passed {
		t.Fatalf("expected Passed; got %v", result.Outcome)
	}
	if !reflect.DeepEqual(ran, []string{"one", "two", "three"}) {
		t.Fatalf("unexpected stage order %v", ran)
	}
}

func TestRunHaltsOnFirstFailure(t *testing.T) {
	var ran []string
	haltErr := NewError(ErrAlreadyInPool, "device in use")
	stages := []Stage{
		recordingStage("identify", &ran, Pass()),
		recordingStage("pool-check", &ran, Halt(haltErr)),
		recordingStage("write-test", &ran, Pass()),
		recordingStage("wipe", &ran, Pass()),
	}
	result := Run(context.Background(), nopLogger{}, stages)
	if result.Outcome != Halted {
		t.Fatalf("expected Halted; got %v", result.Outcome)
	}
	if !errors.Is(result.Err, haltErr) {
		t.Fatalf("expected halt error to surface; got %v", result.Err)
	}
	if !reflect.DeepEqual(ran, []string{"identify", "pool-check"}) {
		t.Fatalf("stages after the failed gate must not run; ran %v", ran)
	}
}

func TestRunFailedWriteTestSkipsWipe(t *testing.T) {
	var ran []string
	stages := []Stage{
		recordingStage("write-test", &ran, Halt(NewError(ErrDestructiveTestFailed, "exit status 1"))),
		recordingStage("wipe", &ran, Pass()),
	}
	result := Run(context.Background(), nopLogger{}, stages)
	if result.Outcome != Halted {
		t.Fatalf("expected Halted; got %v", result.Outcome)
	}
	if kind, ok := KindOf(result.Err); !ok || kind != ErrDestructiveTestFailed {
		t.Fatalf("expected DestructiveTestFailed; got %v", result.Err)
	}
	if !reflect.DeepEqual(ran, []string{"write-test"}) {
		t.Fatalf("signature wipe must not run after a failed write test; ran %v", ran)
	}
}

func TestRunDeclineIsTerminalSuccess(t *testing.T) {
	var ran []string
	stages := []Stage{
		recordingStage("gate", &ran, Decline("operator declined")),
		recordingStage("write-test", &ran, Pass()),
	}
	result := Run(context.Background(), nopLogger{}, stages)
	if result.Outcome != Declined {
		t.Fatalf("expected Declined; got %v", result.Outcome)
	}
	if result.Err != nil {
		t.Fatalf("decline is not an error; got %v", result.Err)
	}
	if !reflect.DeepEqual(ran, []string{"gate"}) {
		t.Fatalf("no stage runs after a decline; ran %v", ran)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran []string
	result := Run(ctx, nopLogger{}, []Stage{recordingStage("one", &ran, Pass())})
	if result.Outcome != Halted {
		t.Fatalf("expected Halted on canceled context; got %v", result.Outcome)
	}
	if len(ran) != 0 {
		t.Fatalf("no stage runs after cancellation; ran %v", ran)
	}
}

func TestErrorKindStrings(t *testing.T) {
	testCases := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrUsage, "UsageError"},
		{ErrPrivilege, "PrivilegeError"},
		{ErrInvalidDeviceName, "InvalidDeviceName"},
		{ErrDeviceNotFound, "DeviceNotFound"},
		{ErrAlreadyInPool, "AlreadyInPool"},
		{ErrAbortedByOperator, "AbortedByOperator"},
		{ErrDestructiveTestFailed, "DestructiveTestFailed"},
		{ErrWipeFailed, "WipeFailed"},
	}
	for _, testCase := range testCases {
		if testCase.kind.String() != testCase.expected {
			t.Fatalf("expected %v; got %v", testCase.expected, testCase.kind.String())
		}
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := NewError(ErrDeviceNotFound, "no such device")
	wrapped := errors.Join(errors.New("outer"), err)
	kind, ok := KindOf(wrapped)
	if !ok || kind != ErrDeviceNotFound {
		t.Fatalf("expected DeviceNotFound through wrapping; got %v %v", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("plain error must not carry a kind")
	}
}
