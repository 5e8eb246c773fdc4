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

// Package consts defines application wide constants.
package consts

import "time"

const (
	// AppName is the name of this application.
	AppName = "poolprep"

	// AppPrettyName is the user-facing name of this application.
	AppPrettyName = "Poolprep"

	// AppCapsName is used to build environment variable names.
	AppCapsName = "POOLPREP"

	// DefaultLogDir is where session logs are written unless overridden
	// by the POOLPREP_LOG_DIR environment variable.
	DefaultLogDir = "/var/log/" + AppName

	// WritePassCount is the number of passes the destructive
	// write-and-verify test makes over the whole device.
	WritePassCount = 4

	// WriteTestBlockSize is the block size handed to the write test.
	WriteTestBlockSize = 4096

	// ProgressInterval is how often the byte-written counter of the
	// destructive write test is sampled.
	ProgressInterval = 30 * time.Second

	// SelfTestPollInterval is how often drive self-test status is polled
	// while waiting for a running self-test. Self-tests run for minutes,
	// so polling is deliberately coarse.
	SelfTestPollInterval = time.Minute

	// ShortSelfTestWait is the grace period given to the short
	// non-destructive self-test before its report is collected.
	ShortSelfTestWait = 2 * time.Minute
)
