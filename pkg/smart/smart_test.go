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

package smart

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/poolprep/poolprep/pkg/device"
	"github.com/poolprep/poolprep/pkg/pipeline"
)

const sataIdentity = `smartctl 7.4 2023-08-01 r5530 [x86_64-linux-6.8.0] (local build)

=== START OF INFORMATION SECTION ===
Model Family:     Western Digital Red
Device Model:     WDC WD80EFZX-68UW8N0
Serial Number:    VK1234AB
Rotation Rate:    5400 rpm
SMART support is: Enabled
`

const nvmeIdentity = `=== START OF INFORMATION SECTION ===
Model Number:                       Samsung SSD 980 1TB
Serial Number:                      S649NX0T123456
Total NVM Capacity:                 1,000,204,886,016 [1.00 TB]
`

func TestParseIdentity(t *testing.T) {
	testCases := []struct {
		text     string
		expected Identity
	}{
		{
			text: sataIdentity,
			expected: Identity{
				Family:       "Western Digital Red",
				Model:        "WDC WD80EFZX-68UW8N0",
				Serial:       "VK1234AB",
				RotationRate: "5400 rpm",
			},
		},
		{
			text: nvmeIdentity,
			expected: Identity{
				Model:  "Samsung SSD 980 1TB",
				Serial: "S649NX0T123456",
			},
		},
		{text: "", expected: Identity{}},
		{text: "garbage output without colons\n", expected: Identity{}},
	}
	for _, testCase := range testCases {
		if result := ParseIdentity(testCase.text); !reflect.DeepEqual(result, testCase.expected) {
			t.Fatalf("expected %+v; got %+v", testCase.expected, result)
		}
	}
}

type fakeRunner struct {
	identity     string
	identityErr  error
	capabilities []string
	capCalls     int
	started      []TestKind
	report       string
}

func (r *fakeRunner) Identity(_ context.Context, _ string) (string, error) {
	return r.identity, r.identityErr
}

func (r *fakeRunner) Capabilities(_ context.Context, _ string) (string, error) {
	if r.capCalls >= len(r.capabilities) {
		return "", nil
	}
	text := r.capabilities[r.capCalls]
	r.capCalls++
	return text, nil
}

func (r *fakeRunner) FullReport(_ context.Context, _ string) (string, error) {
	return r.report, nil
}

func (r *fakeRunner) StartSelfTest(_ context.Context, _ string, kind TestKind) error {
	r.started = append(r.started, kind)
	return nil
}

func testHandle() *device.Handle {
	return &device.Handle{
		RequestedPath: "/dev/sda",
		CanonicalPath: "/dev/sda",
		StableID:      "/dev/disk/by-id/ata-TEST_SER",
		Capacity:      1000,
	}
}

func TestClassifyZonedAttribute(t *testing.T) {
	classifier := &Classifier{
		Runner:    &fakeRunner{identity: sataIdentity},
		ZonedAttr: func(string) (string, error) { return "host-managed", nil },
	}
	result := classifier.Classify(context.Background(), testHandle())
	if result.Mapping != ZonedLikely {
		t.Fatalf("expected ZonedLikely; got %v", result.Mapping)
	}
	if result.Model != "WDC WD80EFZX-68UW8N0" || result.RotationRate != "5400 rpm" {
		t.Fatalf("unexpected identity fields %+v", result)
	}
}

func TestClassifyZonedIdentityLine(t *testing.T) {
	identity := sataIdentity + "Zoned Device:     Host Managed\n"
	classifier := &Classifier{
		Runner:    &fakeRunner{identity: identity},
		ZonedAttr: func(string) (string, error) { return "none", nil },
	}
	result := classifier.Classify(context.Background(), testHandle())
	if result.Mapping != ZonedLikely {
		t.Fatalf("expected ZonedLikely; got %v", result.Mapping)
	}
}

func TestClassifyKnownShingledFamily(t *testing.T) {
	identity := `Device Model:     WDC WD40EFAX-68JH4N0
Rotation Rate:    5400 rpm
`
	classifier := &Classifier{
		Runner:    &fakeRunner{identity: identity},
		ZonedAttr: func(string) (string, error) { return "none", nil },
	}
	result := classifier.Classify(context.Background(), testHandle())
	if result.Mapping != KnownConventionalException {
		t.Fatalf("expected KnownConventionalException; got %v", result.Mapping)
	}
}

func TestClassifyConventionalDefault(t *testing.T) {
	classifier := &Classifier{
		Runner:    &fakeRunner{identity: sataIdentity},
		ZonedAttr: func(string) (string, error) { return "none", nil },
	}
	result := classifier.Classify(context.Background(), testHandle())
	if result.Mapping != ConventionalAssumed {
		t.Fatalf("expected ConventionalAssumed; got %v", result.Mapping)
	}
}

func TestClassifyProbeFailureYieldsUnknown(t *testing.T) {
	classifier := &Classifier{
		Runner:    &fakeRunner{identityErr: errors.New("device went away")},
		ZonedAttr: func(string) (string, error) { return "", errors.New("no sysfs") },
	}
	result := classifier.Classify(context.Background(), testHandle())
	if result.Model != "unknown" || result.RotationRate != "unknown" {
		t.Fatalf("expected unknown fields; got %+v", result)
	}
	if result.Mapping != ConventionalAssumed {
		t.Fatalf("probe failure must not abort; got %v", result.Mapping)
	}
}

func TestSelfTestRunning(t *testing.T) {
	testCases := []struct {
		text     string
		expected bool
	}{
		{"Self-test routine in progress...\n", true},
		{"Self-test execution status:      ( 249)\tSelf-test routine in progress...\n\t\t\t\t\t90% of test remaining.\n", true},
		{"Self-test execution status:      (   0)\tThe previous self-test routine completed\n", false},
		{"", false},
	}
	for _, testCase := range testCases {
		if result := selfTestRunning(testCase.text); result != testCase.expected {
			t.Fatalf("text %q: expected %v; got %v", testCase.text, testCase.expected, result)
		}
	}
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Infof(format string, a ...interface{})    { l.lines = append(l.lines, "I") }
func (l *recordingLogger) Warnf(format string, a ...interface{})    { l.lines = append(l.lines, "W") }
func (l *recordingLogger) FileOnly(format string, a ...interface{}) { l.lines = append(l.lines, "F") }

const running = "Self-test routine in progress"
const completed = "The previous self-test routine completed"

func TestWaitProceedsAfterExactlyNPolls(t *testing.T) {
	const polls = 3
	capabilities := []string{running} // initial detection
	for i := 0; i < polls-1; i++ {
		capabilities = append(capabilities, running)
	}
	capabilities = append(capabilities, completed)

	runner := &fakeRunner{capabilities: capabilities}
	sleeps := 0
	supervisor := &Supervisor{
		Runner:       runner,
		Confirm:      func(label string) bool { return label == "Wait for the running self-test to finish" },
		PollInterval: time.Minute,
		ShortWait:    time.Minute,
		sleep: func(_ context.Context, _ time.Duration) error {
			sleeps++
			return nil
		},
	}

	if err := supervisor.Run(context.Background(), "/dev/sda", &recordingLogger{}); err != nil {
		t.Fatal(err)
	}
	if sleeps != polls {
		t.Fatalf("expected exactly %v polls; got %v", polls, sleeps)
	}
	if runner.capCalls != polls+1 {
		t.Fatalf("expected %v status queries; got %v", polls+1, runner.capCalls)
	}
}

func TestWaitDeclinedAborts(t *testing.T) {
	runner := &fakeRunner{capabilities: []string{running}}
	supervisor := &Supervisor{
		Runner:       runner,
		Confirm:      func(string) bool { return false },
		PollInterval: time.Minute,
		ShortWait:    time.Minute,
		sleep:        func(context.Context, time.Duration) error { return nil },
	}

	err := supervisor.Run(context.Background(), "/dev/sda", &recordingLogger{})
	if kind, ok := pipeline.KindOf(err); !ok || kind != pipeline.ErrAbortedByOperator {
		t.Fatalf("expected AbortedByOperator; got %v", err)
	}
	if len(runner.started) != 0 {
		t.Fatalf("no self-test may start after abort; started %v", runner.started)
	}
}

func TestShortTestStartedAndReportRecorded(t *testing.T) {
	runner := &fakeRunner{
		capabilities: []string{completed},
		report:       "SMART overall-health self-assessment test result: PASSED",
	}
	log := &recordingLogger{}
	supervisor := &Supervisor{
		Runner:       runner,
		Confirm:      func(string) bool { return false }, // decline the extended test offer
		PollInterval: time.Minute,
		ShortWait:    time.Minute,
		sleep:        func(context.Context, time.Duration) error { return nil },
	}

	if err := supervisor.Run(context.Background(), "/dev/sda", log); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runner.started, []TestKind{TestShort}) {
		t.Fatalf("expected a short self-test; started %v", runner.started)
	}
	found := false
	for _, line := range log.lines {
		if line == "F" {
			found = true
		}
	}
	if !found {
		t.Fatal("diagnostic report must be recorded in the session log")
	}
}

func TestExtendedSelfTestOffered(t *testing.T) {
	runner := &fakeRunner{capabilities: []string{completed}}
	supervisor := &Supervisor{
		Runner:       runner,
		Confirm:      func(label string) bool { return label == "Start an extended self-test in the background" },
		PollInterval: time.Minute,
		ShortWait:    time.Minute,
		sleep:        func(context.Context, time.Duration) error { return nil },
	}

	if err := supervisor.Run(context.Background(), "/dev/sda", &recordingLogger{}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runner.started, []TestKind{TestShort, TestLong}) {
		t.Fatalf("expected short then long self-test; started %v", runner.started)
	}
}
