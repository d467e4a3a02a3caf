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

// OpKind identifies a queued WriteBatch operation.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
	OpMerge
)

// Op is one queued operation inside a WriteBatch.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte // unused for OpDelete
	Flags WriteFlags
}

// Database is the uniform contract every backend (in-memory, null,
// RocksDB-class) and every decorator (ReadOnly, column-scoped handle)
// implements. Optional capabilities are discovered through the Supports*
// predicates rather than type assertions, so callers and decorators can
// branch on them uniformly; calling an optional method on a backend that
// doesn't support it returns ErrNotSupported rather than panicking.
type Database interface {
	// Name returns the identity of this partition.
	Name() PartitionName

	// Get returns the value for key, or ok=false if key is absent. The
	// returned Value must be released by the caller.
	Get(key []byte, flags ReadFlags) (v Value, ok bool, err error)

	// MultiGet looks up every key in keys, preserving order. Implementers
	// either provide a batched primitive or the contract falls back to
	// sequential Get calls.
	MultiGet(keys [][]byte, flags ReadFlags) ([]OptionalValue, error)

	// Put stores value under key. A nil value deletes key (the tombstone
	// convention); use Delete for clarity when deleting unconditionally.
	Put(key, value []byte, flags WriteFlags) error

	// Delete removes key. No-op if key is already absent.
	Delete(key []byte, flags WriteFlags) error

	// Contains reports whether key is present. Counts as a read.
	Contains(key []byte) (bool, error)

	// Iterator returns a cursor over all entries. If ordered, entries are
	// yielded in ascending unsigned lexicographic key order; otherwise
	// ordering is backend-defined (insertion or hash order).
	Iterator(ordered bool) (Iterator, error)

	// Snapshot freezes the database's contents at the moment of the call.
	Snapshot() (Snapshot, error)

	// Flush is a durability barrier; may be a no-op.
	Flush(onlyWAL bool) error

	// Clear wipes all entries. May return ErrNotSupported.
	Clear() error

	// Compact is a reorganization hint; may be a no-op.
	Compact() error

	// GatherMetric returns a diagnostics snapshot.
	GatherMetric() Metric

	// Close tears the database down. Safe to call once; behavior of a
	// second call is backend-defined but must not corrupt state.
	Close() error

	// --- capability discovery ---

	SupportsWriteBatch() bool
	SupportsMerge() bool
	SupportsMultiGet() bool
	SupportsSortedView() bool

	// --- optional capabilities; callers must check the matching
	// Supports* predicate first ---

	WriteBatch() (WriteBatch, error)
	Merge(key, value []byte, flags WriteFlags) error
	FirstKey() (v Value, ok bool, err error)
	LastKey() (v Value, ok bool, err error)
	GetViewBetween(low, high []byte) (SortedView, error)
}

// OptionalValue is the element type of MultiGet's result slice: present
// values carry Ok=true and a Value to be released by the caller.
type OptionalValue struct {
	Value Value
	Ok    bool
}

// WriteBatch accumulates an ordered list of put/delete/merge operations
// against one Database, committing them as a single logical unit. Commit's
// doc comment below spells out the atomicity and sequential-fallback
// rules.
type WriteBatch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Merge(key, value []byte, flags WriteFlags) error

	// Pending returns the number of queued, uncommitted operations.
	Pending() int

	// Clear drops all queued operations and releases the internal arena.
	// The batch remains reusable afterward.
	Clear()

	// Commit applies queued operations. On an atomic target, success
	// means all-or-nothing and clears the queue; failure leaves the
	// queue untouched. On a non-atomic target, the first failing
	// operation halts the sweep and the entire original queue (including
	// operations already applied to the target) stays queued for
	// inspection or retry; applied operations are not rolled back.
	Commit() error

	// Close frees the batch's arena regardless of commit state.
	Close() error
}

// Iterator yields Entries until exhausted. Teardown via Close releases any
// buffered, unconsumed look-ahead entries.
type Iterator interface {
	// Next advances and returns the next entry. ok=false means exhausted.
	Next() (e Entry, ok bool, err error)
	Close() error
}

// Snapshot is a frozen, independent point-in-time view created by
// Database.Snapshot.
type Snapshot interface {
	Get(key []byte) (v Value, ok bool, err error)
	Contains(key []byte) (bool, error)
	Iterator(ordered bool) (Iterator, error)
	Close() error
}

// SortedView is a cursor over the lexicographic range [Low, High) created
// by Database.GetViewBetween.
type SortedView interface {
	// MoveNext advances to the next in-range entry. The first call
	// without a prior StartBefore yields the first in-range entry.
	MoveNext() (e Entry, ok bool, err error)

	// StartBefore positions the cursor, before any MoveNext call, at the
	// largest key <= value using binary search over the materialized
	// range. Returns false if no such key exists. The following MoveNext
	// advances past this position and yields the successor.
	StartBefore(value []byte) (bool, error)

	Close() error
}
