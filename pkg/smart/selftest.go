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
	"strings"
	"time"

	"github.com/poolprep/poolprep/pkg/consts"
	"github.com/poolprep/poolprep/pkg/pipeline"
)

// Logger is the reporting sink of the self-test supervisor. FileOnly
// carries the full diagnostic report into the session log without
// flooding the console.
type Logger interface {
	Infof(format string, a ...interface{})
	Warnf(format string, a ...interface{})
	FileOnly(format string, a ...interface{})
}

// selfTestRunning reports whether the capability text describes a
// self-test in progress.
func selfTestRunning(text string) bool {
	return strings.Contains(text, "Self-test routine in progress") ||
		strings.Contains(text, "of test remaining")
}

// Supervisor detects an in-progress self-test, optionally waits it out,
// and initiates new non-destructive diagnostics.
type Supervisor struct {
	Runner       Runner
	Confirm      func(label string) bool
	PollInterval time.Duration
	ShortWait    time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor creates a Supervisor with production intervals. confirm
// presents the operator a binary choice and reports acceptance.
func NewSupervisor(runner Runner, confirm func(label string) bool) *Supervisor {
	return &Supervisor{
		Runner:       runner,
		Confirm:      confirm,
		PollInterval: consts.SelfTestPollInterval,
		ShortWait:    consts.ShortSelfTestWait,
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes the self-test stage for device. A pre-existing self-test
// is either waited out or the pipeline aborts on operator choice. With
// no test running, a short self-test is started and its report recorded
// after a fixed grace period. The operator may then start an extended
// self-test which deliberately keeps running in the background; its
// completion is never awaited.
func (s *Supervisor) Run(ctx context.Context, device string, log Logger) error {
	text, err := s.Runner.Capabilities(ctx, device)
	if err != nil {
		log.Warnf("unable to query self-test status of %v; %v", device, err)
		text = ""
	}

	if selfTestRunning(text) {
		log.Warnf("a self-test is already in progress on %v", device)
		if !s.Confirm("Wait for the running self-test to finish") {
			return pipeline.NewError(pipeline.ErrAbortedByOperator,
				"operator declined to wait for the running self-test on %v", device)
		}
		if err := s.waitForCompletion(ctx, device, log); err != nil {
			return err
		}
	} else {
		s.runShortTest(ctx, device, log)
	}

	if s.Confirm("Start an extended self-test in the background") {
		if err := s.Runner.StartSelfTest(ctx, device, TestLong); err != nil {
			log.Warnf("unable to start extended self-test on %v; %v", device, err)
		} else {
			log.Infof("extended self-test started on %v; it will keep running in the background", device)
		}
	}

	return nil
}

// waitForCompletion polls self-test status at a coarse fixed interval
// until no test is reported running.
func (s *Supervisor) waitForCompletion(ctx context.Context, device string, log Logger) error {
	for {
		if err := s.sleep(ctx, s.PollInterval); err != nil {
			return err
		}
		text, err := s.Runner.Capabilities(ctx, device)
		if err != nil {
			return err
		}
		if !selfTestRunning(text) {
			log.Infof("self-test on %v completed", device)
			return nil
		}
		log.Infof("self-test still in progress on %v", device)
	}
}

func (s *Supervisor) runShortTest(ctx context.Context, device string, log Logger) {
	log.Infof("starting short self-test on %v", device)
	if err := s.Runner.StartSelfTest(ctx, device, TestShort); err != nil {
		log.Warnf("unable to start short self-test on %v; %v", device, err)
		return
	}

	log.Infof("waiting %v for the short self-test to finish", s.ShortWait)
	if err := s.sleep(ctx, s.ShortWait); err != nil {
		return
	}

	report, err := s.Runner.FullReport(ctx, device)
	if err != nil {
		log.Warnf("unable to collect diagnostic report of %v; %v", device, err)
		return
	}
	log.Infof("diagnostic report of %v recorded in the session log", device)
	log.FileOnly("diagnostic report of %v:\n%v", device, report)
}
