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

// Package zpool determines whether a device identity is already part of
// an existing storage pool. Pool status is free-form text, so the text
// matching lives behind a narrow interface that tests can fake.
package zpool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poolprep/poolprep/pkg/pipeline"
	"k8s.io/klog/v2"
)

// StatusQuerier provides the raw pool status text for all known pools.
type StatusQuerier interface {
	Status(ctx context.Context) (string, error)
}

// ExecQuerier queries pool status by running the zpool utility.
type ExecQuerier struct{}

// Status implements StatusQuerier.
func (ExecQuerier) Status(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "zpool", "status")
	output, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			// No pool tooling installed means no pools to
			// conflict with.
			klog.V(5).Infof("zpool utility not available: %v", err)
			return "", nil
		}
		return "", fmt.Errorf("unable to query pool status; %v: %v", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Checker is the pool membership gate.
type Checker struct {
	Querier StatusQuerier
}

// NewChecker creates a Checker backed by the zpool utility.
func NewChecker() *Checker {
	return &Checker{Querier: ExecQuerier{}}
}

// Check halts with AlreadyInPool when stableID appears in the status of
// any known pool. The identifier should be as specific as possible (a
// full path, not a short name) since this is a textual search.
func (c *Checker) Check(ctx context.Context, stableID string) error {
	status, err := c.Querier.Status(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify pool membership of %v; %w", stableID, err)
	}
	if pool, found := find(status, stableID); found {
		return pipeline.NewError(pipeline.ErrAlreadyInPool,
			"device %v is part of pool %v", stableID, pool)
	}
	return nil
}

// find scans pool status text for the device identity and returns the
// name of the containing pool when found. Pool status lists member
// devices by their base name, one per line, under a "pool:" header.
func find(status, stableID string) (pool string, found bool) {
	base := filepath.Base(stableID)
	currentPool := "(unknown)"
	for _, line := range strings.Split(status, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(trimmed, "pool:"); ok {
			currentPool = strings.TrimSpace(name)
			continue
		}
		for _, field := range strings.Fields(trimmed) {
			if field == stableID || field == base || matchesWithPartition(field, base) {
				return currentPool, true
			}
		}
	}
	return "", false
}

// matchesWithPartition matches pool members recorded with a partition
// suffix, e.g. "sda1" or "ata-FOO_SER-part1" for device "sda" or
// "ata-FOO_SER".
func matchesWithPartition(field, base string) bool {
	rest, ok := strings.CutPrefix(field, base)
	if !ok || rest == "" {
		return false
	}
	if strings.HasPrefix(rest, "-part") {
		return true
	}
	if rest[0] >= '0' && rest[0] <= '9' {
		return true
	}
	return rest[0] == 'p' && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9'
}
