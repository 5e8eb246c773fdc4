//go:build linux

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

package device

import (
	"fmt"
	"path/filepath"
	"strconv"
	"unsafe"

	"golang.org/x/sys/unix"
)

const sectorSize = 512

func ioctl(fd, request, argp uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, argp); errno != 0 {
		return errno
	}
	return nil
}

// capacity returns the device size in bytes, asking the kernel first
// and falling back to the sysfs sector count.
func capacity(path string) (uint64, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return sysfsCapacity(filepath.Base(path))
	}
	defer unix.Close(fd)

	var size uint64
	if err := ioctl(uintptr(fd), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); err != nil {
		return sysfsCapacity(filepath.Base(path))
	}
	return size, nil
}

func sysfsCapacity(name string) (uint64, error) {
	s, err := readFirstLine("/sys/class/block/" + name + "/size")
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("no size attribute for device %v", name)
	}
	sectors, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return sectors * sectorSize, nil
}

// ZonedAttribute reports the write-mapping characteristic the kernel
// exposes for the named device: "none", "host-aware" or "host-managed".
// Empty when the kernel does not expose the attribute.
func ZonedAttribute(name string) (string, error) {
	return readFirstLine("/sys/class/block/" + name + "/queue/zoned")
}
