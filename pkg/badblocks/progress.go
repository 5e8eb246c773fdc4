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

package badblocks

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Progress is a snapshot of the destructive write test. Recomputed on
// each sample, never rolled back.
type Progress struct {
	// TotalExpected is device capacity times the pass count, fixed
	// before the run starts.
	TotalExpected uint64
	// Written is the cumulative byte count the test process has
	// written so far.
	Written uint64
	// Elapsed is the time since the test was launched.
	Elapsed time.Duration
}

// Percent is the integer-truncating completion percentage. It reaches
// 100 only once Written equals TotalExpected.
func (p Progress) Percent() uint64 {
	if p.TotalExpected == 0 {
		return 0
	}
	return p.Written * 100 / p.TotalExpected
}

// ETA estimates the remaining duration assuming constant throughput
// from the start of the run:
//
//	eta = elapsed * total / written - elapsed
//
// This is a simple linear extrapolation, not a moving-average
// estimator; early samples can be wildly inaccurate. ok is false while
// nothing has been written yet.
func (p Progress) ETA() (eta time.Duration, ok bool) {
	if p.Written == 0 || p.TotalExpected == 0 {
		return 0, false
	}
	if p.Written >= p.TotalExpected {
		return 0, true
	}
	remaining := p.TotalExpected - p.Written
	eta = time.Duration(float64(p.Elapsed) * float64(remaining) / float64(p.Written))
	return eta, true
}

// ByteCounter exposes the cumulative bytes-written counter of the
// tracked operation.
type ByteCounter interface {
	Written() (uint64, error)
}

// procIOCounter reads the write accounting the kernel keeps for the
// tracked process.
type procIOCounter struct {
	pid int
}

func (c procIOCounter) Written() (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%v/io", c.pid))
	if err != nil {
		return 0, err
	}
	return parseWriteBytes(string(data))
}

// parseWriteBytes extracts the write_bytes counter from process I/O
// accounting text.
func parseWriteBytes(text string) (uint64, error) {
	for _, line := range strings.Split(text, "\n") {
		value, found := strings.CutPrefix(line, "write_bytes:")
		if !found {
			continue
		}
		return strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	}
	return 0, fmt.Errorf("no write_bytes counter in process I/O accounting")
}
