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

// ReadFlags is a bit set of backend hints for read operations. Backends are
// free to ignore any subset of these; observable behavior must be identical
// with all flags cleared.
type ReadFlags uint32

const (
	CacheMissHint      ReadFlags = 1 << 0
	ReadAhead          ReadFlags = 1 << 1
	ReadAheadStronger  ReadFlags = 1 << 2
	ReadAheadStrongest ReadFlags = 1 << 3
	SkipDuplicateRead  ReadFlags = 1 << 4
)

// Has reports whether all bits in want are set in f.
func (f ReadFlags) Has(want ReadFlags) bool { return f&want == want }

// WriteFlags is a bit set of backend hints for write operations.
type WriteFlags uint32

const (
	LowPriority WriteFlags = 1 << 0
	DisableWAL  WriteFlags = 1 << 1
)

// Has reports whether all bits in want are set in f.
func (f WriteFlags) Has(want WriteFlags) bool { return f&want == want }

// Merge combines two flag sets with a bitwise OR.
func (f ReadFlags) Merge(other ReadFlags) ReadFlags { return f | other }

// Merge combines two flag sets with a bitwise OR.
func (f WriteFlags) Merge(other WriteFlags) WriteFlags { return f | other }
