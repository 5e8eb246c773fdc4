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

	"github.com/poolprep/poolprep/pkg/device"
	"k8s.io/klog/v2"
)

// Mapping is the physical write-mapping characteristic of the device.
type Mapping int

// Write-mapping classifications, from strongest signal to weakest.
const (
	// ConventionalAssumed: nothing indicates shingled recording.
	ConventionalAssumed Mapping = iota
	// KnownConventionalException: the zoned probe was silent but the
	// model belongs to a drive family documented to use shingled
	// recording.
	KnownConventionalException
	// ZonedLikely: the zoned-storage capability probe positively
	// reported zoning.
	ZonedLikely
)

func (m Mapping) String() string {
	switch m {
	case ZonedLikely:
		return "zoned (SMR) likely"
	case KnownConventionalException:
		return "known SMR drive family"
	default:
		return "conventional (CMR) assumed"
	}
}

// Classification is advisory output describing the device media. It
// never gates the pipeline.
type Classification struct {
	Model        string
	RotationRate string
	Mapping      Mapping
}

// Drive families documented to use shingled recording without always
// reporting a zoned command set.
var knownShingledModels = []string{
	"WD20EFAX", "WD30EFAX", "WD40EFAX", "WD60EFAX",
	"ST8000AS0002", "ST6000AS0002", "ST5000AS0011",
	"ST2000DM008", "ST3000DM007", "ST4000DM004", "ST8000DM004",
	"DT02ABA",
}

// Classifier determines the write-mapping characteristic from two
// independent signals: the kernel zoned-capability attribute and the
// drive identity text.
type Classifier struct {
	Runner    Runner
	ZonedAttr func(name string) (string, error)
}

// NewClassifier creates a Classifier backed by the live system.
func NewClassifier(runner Runner) *Classifier {
	return &Classifier{Runner: runner, ZonedAttr: device.ZonedAttribute}
}

// Classify evaluates the classification policy in order, first match
// wins. Probes that fail yield "unknown" fields rather than aborting.
func (c *Classifier) Classify(ctx context.Context, handle *device.Handle) Classification {
	result := Classification{Model: "unknown", RotationRate: "unknown"}

	text, err := c.Runner.Identity(ctx, handle.CanonicalPath)
	if err != nil {
		klog.V(5).Infof("identity probe failed for %v: %v", handle.CanonicalPath, err)
	}
	identity := ParseIdentity(text)
	if identity.Model != "" {
		result.Model = identity.Model
	}
	if identity.RotationRate != "" {
		result.RotationRate = identity.RotationRate
	}

	if c.zonedReported(handle.Name(), text) {
		result.Mapping = ZonedLikely
		return result
	}

	model := identity.Family + " " + identity.Model
	for _, known := range knownShingledModels {
		if strings.Contains(model, known) {
			result.Mapping = KnownConventionalException
			return result
		}
	}

	result.Mapping = ConventionalAssumed
	return result
}

// zonedReported is the zoned-storage capability probe: the kernel
// queue/zoned attribute plus an explicit zoned capability line in the
// identity text.
func (c *Classifier) zonedReported(name, identityText string) bool {
	if c.ZonedAttr != nil {
		attr, err := c.ZonedAttr(name)
		if err != nil {
			klog.V(5).Infof("zoned attribute probe failed for %v: %v", name, err)
		}
		switch attr {
		case "host-managed", "host-aware":
			return true
		}
	}
	for _, line := range strings.Split(identityText, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "Zoned Device:") {
			continue
		}
		if strings.Contains(line, "Host Managed") || strings.Contains(line, "Host Aware") {
			return true
		}
	}
	return false
}
