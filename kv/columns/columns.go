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

// Package columns implements column families: an
// enum-indexed bundle of Database partitions with cross-column batch and
// snapshot bundling. Per-column handles are kept in a map keyed by a
// comparable column type, the way erigon-lib's
// Label enum indexes TablesCfgByLabel, generalized here with Go generics
// instead of a per-label switch.
package columns

import "github.com/erigontech/kvcore/kv"

// Column is the closed set of columns a Bundle is indexed by. Concrete
// enumerations (ReceiptColumn, BlobTxColumn in enums.go) satisfy this via
// their String() method.
type Column interface {
	comparable
	String() string
}

// Bundle is a column-family database: one kv.Database per column in C.
type Bundle[C Column] struct {
	dbs map[C]kv.Database
	all []C
}

// NewBundle builds a Bundle from a constructor invoked once per column in
// all, in order. The constructor typically comes from a Factory (see
// kv/kvfactory).
func NewBundle[C Column](all []C, newColumnDB func(c C) (kv.Database, error)) (*Bundle[C], error) {
	b := &Bundle[C]{dbs: make(map[C]kv.Database, len(all)), all: all}
	for _, c := range all {
		db, err := newColumnDB(c)
		if err != nil {
			return nil, err
		}
		b.dbs[c] = db
	}
	return b, nil
}

// GetColumnDB returns the per-column handle for c. Panics if c is not one
// of the columns the Bundle was constructed with: a programmer error, not
// a runtime condition callers should need to check.
func (b *Bundle[C]) GetColumnDB(c C) kv.Database {
	db, ok := b.dbs[c]
	if !ok {
		panic("columns: unknown column " + c.String())
	}
	return db
}

// Columns returns the closed set of columns this Bundle was built with.
func (b *Bundle[C]) Columns() []C { return b.all }

// Close tears down every column's database.
func (b *Bundle[C]) Close() error {
	var firstErr error
	for _, c := range b.all {
		if err := b.dbs[c].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteBatch is a bundle of per-column batches that commit together. The
// commit is per-column atomic, not cross-column atomic: each column's
// queued ops apply via that column's own atomic primitive where
// advertised, but a failure in one column does not roll back another.
type WriteBatch[C Column] struct {
	batches map[C]kv.WriteBatch
	order   []C
}

// StartWriteBatch builds one batch per column via kv.NewWriteBatch, so
// each column gets its own atomic-or-sequential-fallback dispatch.
func (b *Bundle[C]) StartWriteBatch() (*WriteBatch[C], error) {
	wb := &WriteBatch[C]{batches: make(map[C]kv.WriteBatch, len(b.all)), order: b.all}
	for _, c := range b.all {
		batch, err := kv.NewWriteBatch(b.dbs[c])
		if err != nil {
			return nil, err
		}
		wb.batches[c] = batch
	}
	return wb, nil
}

// GetColumnBatch returns the column-scoped batch for c.
func (w *WriteBatch[C]) GetColumnBatch(c C) kv.WriteBatch {
	b, ok := w.batches[c]
	if !ok {
		panic("columns: unknown column " + c.String())
	}
	return b
}

// Commit applies every column's queued ops, preferring each column's
// atomic primitive where advertised. Not cross-column atomic: if column B
// fails after column A committed, A's ops remain visible.
func (w *WriteBatch[C]) Commit() error {
	var firstErr error
	for _, c := range w.order {
		if err := w.batches[c].Commit(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close frees every column batch's arena, regardless of commit state.
func (w *WriteBatch[C]) Close() error {
	var firstErr error
	for _, c := range w.order {
		if err := w.batches[c].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Snapshot is a bundle of per-column snapshots taken together.
type Snapshot[C Column] struct {
	snaps map[C]kv.Snapshot
	order []C
}

// CreateSnapshot snapshots every column's database.
func (b *Bundle[C]) CreateSnapshot() (*Snapshot[C], error) {
	s := &Snapshot[C]{snaps: make(map[C]kv.Snapshot, len(b.all)), order: b.all}
	for _, c := range b.all {
		snap, err := b.dbs[c].Snapshot()
		if err != nil {
			return nil, err
		}
		s.snaps[c] = snap
	}
	return s, nil
}

// GetColumnSnapshot returns the column-scoped snapshot for c.
func (s *Snapshot[C]) GetColumnSnapshot(c C) kv.Snapshot {
	snap, ok := s.snaps[c]
	if !ok {
		panic("columns: unknown column " + c.String())
	}
	return snap
}

// Close tears down every column snapshot.
func (s *Snapshot[C]) Close() error {
	var firstErr error
	for _, c := range s.order {
		if err := s.snaps[c].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
