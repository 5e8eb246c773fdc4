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

package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal pipeline conditions.
type ErrorKind int

// Fatal condition kinds.
const (
	ErrUsage ErrorKind = iota + 1
	ErrPrivilege
	ErrInvalidDeviceName
	ErrDeviceNotFound
	ErrAlreadyInPool
	ErrAbortedByOperator
	ErrDestructiveTestFailed
	ErrWipeFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUsage:
		return "UsageError"
	case ErrPrivilege:
		return "PrivilegeError"
	case ErrInvalidDeviceName:
		return "InvalidDeviceName"
	case ErrDeviceNotFound:
		return "DeviceNotFound"
	case ErrAlreadyInPool:
		return "AlreadyInPool"
	case ErrAbortedByOperator:
		return "AbortedByOperator"
	case ErrDestructiveTestFailed:
		return "DestructiveTestFailed"
	case ErrWipeFailed:
		return "WipeFailed"
	default:
		return "UnknownError"
	}
}

// Error is a fatal pipeline condition tagged with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged fatal condition.
func NewError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind of err if it is a tagged pipeline error.
func KindOf(err error) (ErrorKind, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return 0, false
}
