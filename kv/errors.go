// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package kv

import (
	"errors"
	"fmt"
)

// Sentinel errors covering the contract's error taxonomy. Callers should
// match against these with errors.Is, not string comparison.
var (
	// ErrNotSupported is returned when a capability is invoked on a backend
	// that does not advertise it. Callers must check the corresponding
	// Supports* predicate before calling; this is raised at the call site,
	// never papered over with a fallback.
	ErrNotSupported = errors.New("kv: operation not supported by this backend")

	// ErrClosed is returned when an operation is issued against a backend
	// database after it has been closed (including a batch Commit against
	// it), and by memdb and nulldb snapshots after their own Close.
	// Iterators and sorted views do not report it.
	ErrClosed = errors.New("kv: database closed")

	// ErrKeyTooLarge is returned when a key exceeds a backend-imposed maximum.
	ErrKeyTooLarge = errors.New("kv: key too large")

	// ErrValueTooLarge is returned when a value exceeds a backend-imposed maximum.
	ErrValueTooLarge = errors.New("kv: value too large")

	// ErrAllocFailed is returned distinctly from storage faults so callers
	// can tell memory exhaustion apart from backend corruption/IO errors.
	ErrAllocFailed = errors.New("kv: allocation failed")

	// ErrNotRegistered is returned by the provider registry on a lookup miss.
	ErrNotRegistered = errors.New("kv: partition not registered")

	// ErrWriteRejected is returned by a strict read-only database for any
	// write attempt.
	ErrWriteRejected = errors.New("kv: write rejected by read-only database")
)

// StorageError wraps an opaque backend failure (I/O error, corruption, or
// any other unspecified fault) so it can be told apart from the sentinel
// errors above while still carrying the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("kv: storage fault during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError tagged with the operation
// that failed. Returns nil if err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
