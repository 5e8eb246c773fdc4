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

// Package badblocks launches the irreversible multi-pass write-and-
// verify test, tracks the subprocess and samples its byte-write
// progress concurrently with the blocking wait for completion.
package badblocks

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/poolprep/poolprep/pkg/consts"
	"github.com/poolprep/poolprep/pkg/pipeline"
)

// ReportFunc receives a progress snapshot on each sample. It must not
// block; reporting runs asynchronously relative to the tracked
// operation and must never delay it.
type ReportFunc func(Progress)

// Supervisor runs the destructive write test on one device.
type Supervisor struct {
	Device    string
	Capacity  uint64
	Passes    int
	BlockSize int
	Interval  time.Duration

	// Output receives the test's verbose output in full; bad-block
	// findings are surfaced unfiltered.
	Output io.Writer
	Report ReportFunc

	newCounter func(pid int) ByteCounter
}

// NewSupervisor creates a Supervisor with the production pass count,
// block size and sampling interval.
func NewSupervisor(device string, capacity uint64, output io.Writer, report ReportFunc) *Supervisor {
	return &Supervisor{
		Device:    device,
		Capacity:  capacity,
		Passes:    consts.WritePassCount,
		BlockSize: consts.WriteTestBlockSize,
		Interval:  consts.ProgressInterval,
		Output:    output,
		Report:    report,
		newCounter: func(pid int) ByteCounter {
			return procIOCounter{pid: pid}
		},
	}
}

// TotalExpected is the byte volume the whole test will write: device
// capacity times the pass count.
func (s *Supervisor) TotalExpected() uint64 {
	return s.Capacity * uint64(s.Passes)
}

// Run launches the write-and-verify test and blocks until it exits,
// sampling the bytes-written counter at the fixed interval from a
// concurrent goroutine. There is no supported abort path once the test
// has started; the subprocess is deliberately not bound to a
// cancellable context.
func (s *Supervisor) Run() error {
	cmd := exec.Command(
		"badblocks",
		"-b", strconv.Itoa(s.BlockSize),
		"-ws",
		s.Device,
	)
	cmd.Stdout = s.Output
	cmd.Stderr = s.Output

	if err := cmd.Start(); err != nil {
		return pipeline.NewError(pipeline.ErrDestructiveTestFailed,
			"unable to launch write test on %v; %v", s.Device, err)
	}

	done := make(chan struct{})
	sampled := make(chan struct{})
	ticker := time.NewTicker(s.Interval)
	go func() {
		defer close(sampled)
		defer ticker.Stop()
		s.sampleLoop(ticker.C, done, s.newCounter(cmd.Process.Pid), time.Now())
	}()

	err := cmd.Wait()
	close(done)
	<-sampled

	if err != nil {
		return pipeline.NewError(pipeline.ErrDestructiveTestFailed,
			"write test failed on %v; %v", s.Device, err)
	}
	return nil
}

// sampleLoop reports a progress snapshot for every tick where the
// counter shows written bytes. Counter read failures are skipped; the
// next tick retries.
func (s *Supervisor) sampleLoop(tick <-chan time.Time, done <-chan struct{}, counter ByteCounter, start time.Time) {
	total := s.TotalExpected()
	for {
		select {
		case <-done:
			return
		case <-tick:
			written, err := counter.Written()
			if err != nil || written == 0 {
				continue
			}
			if s.Report != nil {
				s.Report(Progress{
					TotalExpected: total,
					Written:       written,
					Elapsed:       time.Since(start),
				})
			}
		}
	}
}

// Describe returns the operator-facing description of what this run
// will do.
func (s *Supervisor) Describe() string {
	return fmt.Sprintf("%v-pass write-and-verify test over %v", s.Passes, s.Device)
}
