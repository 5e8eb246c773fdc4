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

package zpool

import (
	"context"
	"testing"

	"github.com/poolprep/poolprep/pkg/pipeline"
)

const sampleStatus = `  pool: tank
 state: ONLINE
config:

	NAME                                   STATE     READ WRITE CKSUM
	tank                                   ONLINE       0     0     0
	  mirror-0                             ONLINE       0     0     0
	    ata-WDC_WD80EFZX-68UW8N0_VK1AAAA   ONLINE       0     0     0
	    ata-WDC_WD80EFZX-68UW8N0_VK1BBBB   ONLINE       0     0     0

errors: No known data errors

  pool: scratch
 state: ONLINE
config:

	NAME        STATE     READ WRITE CKSUM
	scratch     ONLINE       0     0     0
	  sdc1      ONLINE       0     0     0
`

type staticQuerier string

func (q staticQuerier) Status(_ context.Context) (string, error) {
	return string(q), nil
}

func TestFind(t *testing.T) {
	testCases := []struct {
		stableID     string
		expectedPool string
		found        bool
	}{
		{"/dev/disk/by-id/ata-WDC_WD80EFZX-68UW8N0_VK1AAAA", "tank", true},
		{"/dev/disk/by-id/ata-WDC_WD80EFZX-68UW8N0_VK1BBBB", "tank", true},
		{"/dev/sdc", "scratch", true}, // recorded with partition suffix
		{"/dev/disk/by-id/ata-WDC_WD80EFZX-68UW8N0_VK1CCCC", "", false},
		{"/dev/sdd", "", false},
		{"/dev/sd", "", false}, // must not match "sdc1" by bare prefix
	}
	for _, testCase := range testCases {
		pool, found := find(sampleStatus, testCase.stableID)
		if found != testCase.found || pool != testCase.expectedPool {
			t.Fatalf("stableID %v: expected (%q, %v); got (%q, %v)",
				testCase.stableID, testCase.expectedPool, testCase.found, pool, found)
		}
	}
}

func TestMatchesWithPartition(t *testing.T) {
	testCases := []struct {
		field    string
		base     string
		expected bool
	}{
		{"sda1", "sda", true},
		{"sda12", "sda", true},
		{"nvme0n1p2", "nvme0n1", true},
		{"ata-FOO_SER-part3", "ata-FOO_SER", true},
		{"sdab", "sda", false},
		{"sda", "sda", false},
		{"ata-FOO_SER2", "ata-FOO_SER", true},
	}
	for _, testCase := range testCases {
		if result := matchesWithPartition(testCase.field, testCase.base); result != testCase.expected {
			t.Fatalf("field %q base %q: expected %v; got %v",
				testCase.field, testCase.base, testCase.expected, result)
		}
	}
}

func TestCheckHaltsWhenInPool(t *testing.T) {
	checker := &Checker{Querier: staticQuerier(sampleStatus)}
	err := checker.Check(context.Background(), "/dev/disk/by-id/ata-WDC_WD80EFZX-68UW8N0_VK1AAAA")
	if kind, ok := pipeline.KindOf(err); !ok || kind != pipeline.ErrAlreadyInPool {
		t.Fatalf("expected AlreadyInPool; got %v", err)
	}
}

func TestCheckPassesWhenAbsent(t *testing.T) {
	checker := &Checker{Querier: staticQuerier(sampleStatus)}
	if err := checker.Check(context.Background(), "/dev/disk/by-id/ata-NEW_DRIVE_SER"); err != nil {
		t.Fatalf("expected pass; got %v", err)
	}
}

func TestCheckPassesWithNoPools(t *testing.T) {
	checker := &Checker{Querier: staticQuerier("no pools available\n")}
	if err := checker.Check(context.Background(), "/dev/sda"); err != nil {
		t.Fatalf("expected pass; got %v", err)
	}
}
