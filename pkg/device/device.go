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

// Package device resolves a user supplied device path to a canonical,
// stable identity usable for pool membership comparison.
package device

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/poolprep/poolprep/pkg/pipeline"
	"k8s.io/klog/v2"
)

const defaultAliasDir = "/dev/disk/by-id"

// Handle is the resolved identity of the device under validation.
// Created once at pipeline start and read-only thereafter.
type Handle struct {
	RequestedPath string
	CanonicalPath string
	StableID      string
	Capacity      uint64
}

// Name returns the kernel name of the device, e.g. "sda".
func (h *Handle) Name() string {
	return filepath.Base(h.CanonicalPath)
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/dev/sd[a-z]+$`),
	regexp.MustCompile(`^/dev/hd[a-z]+$`),
	regexp.MustCompile(`^/dev/vd[a-z]+$`),
	regexp.MustCompile(`^/dev/xvd[a-z]+$`),
	regexp.MustCompile(`^/dev/nvme[0-9]+n[0-9]+$`),
	regexp.MustCompile(`^/dev/disk/by-id/[A-Za-z0-9._+:=-]+$`),
}

func validName(path string) bool {
	for _, pattern := range namePatterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

// Identifier resolves device paths. The zero value is not usable; use
// NewIdentifier.
type Identifier struct {
	aliasDir   string
	statFn     func(string) (os.FileInfo, error)
	resolveFn  func(string) (string, error)
	capacityFn func(string) (uint64, error)
}

// NewIdentifier creates an Identifier backed by the live system.
func NewIdentifier() *Identifier {
	return &Identifier{
		aliasDir:   defaultAliasDir,
		statFn:     os.Stat,
		resolveFn:  filepath.EvalSymlinks,
		capacityFn: capacity,
	}
}

// Identify validates path against the allow-listed block device naming
// conventions, resolves its canonical path, finds a persistent alias
// stable across reboots and enumeration order, and reads the device
// capacity. It performs no privileged or destructive call for paths
// that fail the name check.
func (i *Identifier) Identify(path string) (*Handle, error) {
	if !validName(path) {
		return nil, pipeline.NewError(pipeline.ErrInvalidDeviceName,
			"device path %v does not match any known block device naming convention", path)
	}

	info, err := i.statFn(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrDeviceNotFound, "device %v not found; %v", path, err)
	}
	if !isBlockDevice(info) {
		return nil, pipeline.NewError(pipeline.ErrDeviceNotFound, "%v is not a block device", path)
	}

	canonical, err := i.resolveFn(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrDeviceNotFound,
			"unable to resolve canonical path of %v; %v", path, err)
	}

	stableID := i.findAlias(canonical)
	if stableID == "" {
		// Degraded but functional: the canonical path stays
		// comparable against pool membership records for this boot.
		klog.V(5).Infof("no persistent alias found for %v; using canonical path", canonical)
		stableID = canonical
	}

	size, err := i.capacityFn(canonical)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrDeviceNotFound,
			"unable to read capacity of %v; %v", canonical, err)
	}

	return &Handle{
		RequestedPath: path,
		CanonicalPath: canonical,
		StableID:      stableID,
		Capacity:      size,
	}, nil
}

func isBlockDevice(info os.FileInfo) bool {
	return info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
}

// findAlias scans the persistent alias directory for symlinks resolving
// to the canonical path.
func (i *Identifier) findAlias(canonical string) string {
	names, err := readdirnames(i.aliasDir)
	if err != nil {
		klog.V(5).Infof("unable to read alias directory %v: %v", i.aliasDir, err)
		return ""
	}

	var candidates []string
	for _, name := range names {
		alias := filepath.Join(i.aliasDir, name)
		target, err := i.resolveFn(alias)
		if err != nil {
			continue
		}
		if target == canonical {
			candidates = append(candidates, alias)
		}
	}

	return pickAlias(candidates)
}

// pickAlias prefers transport-prefixed aliases over WWN aliases since
// they carry the model and serial and are easier to match in pool
// status output.
func pickAlias(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return aliasRank(candidates[a]) < aliasRank(candidates[b])
	})
	return candidates[0]
}

func aliasRank(alias string) int {
	base := filepath.Base(alias)
	switch {
	case strings.HasPrefix(base, "ata-"):
		return 0
	case strings.HasPrefix(base, "scsi-"):
		return 1
	case strings.HasPrefix(base, "nvme-") && !strings.HasPrefix(base, "nvme-eui."):
		return 2
	case strings.HasPrefix(base, "wwn-"), strings.HasPrefix(base, "nvme-eui."):
		return 4
	default:
		return 3
	}
}

// String implements fmt.Stringer for log lines.
func (h *Handle) String() string {
	return fmt.Sprintf("%v (id: %v)", h.CanonicalPath, h.StableID)
}
