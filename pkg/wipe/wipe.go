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

// Package wipe erases residual filesystem and pool metadata signatures
// after a successful write test.
package wipe

import (
	"context"
	"io"
	"os/exec"

	"github.com/poolprep/poolprep/pkg/pipeline"
)

// Wiper erases on-disk signatures. The run function is swappable for
// tests.
type Wiper struct {
	run func(ctx context.Context, device string) ([]byte, error)
}

// NewWiper creates a Wiper backed by the wipefs utility.
func NewWiper() *Wiper {
	return &Wiper{
		run: func(ctx context.Context, device string) ([]byte, error) {
			return exec.CommandContext(ctx, "wipefs", "--all", device).CombinedOutput()
		},
	}
}

// Wipe forcibly erases all filesystem and pool signatures on device.
// The erase output is appended to the session log in full. A failure
// here is terminal but arrives after the primary irreversible action
// already ran, so callers report it rather than recover.
func (w *Wiper) Wipe(ctx context.Context, device string, output io.Writer) error {
	out, err := w.run(ctx, device)
	if len(out) > 0 && output != nil {
		output.Write(out)
	}
	if err != nil {
		return pipeline.NewError(pipeline.ErrWipeFailed,
			"unable to erase signatures on %v; %v", device, err)
	}
	return nil
}
