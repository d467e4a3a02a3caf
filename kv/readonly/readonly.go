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

// Package readonly implements the ReadOnly decorator: a
// wrapper around any Database that either rejects writes outright (strict
// mode) or shadows the wrapped store with an in-memory overlay.
package readonly

import (
	"github.com/google/btree"

	"github.com/erigontech/kvcore/internal/arena"
	"github.com/erigontech/kvcore/kv"
)

// Database wraps a base kv.Database. See New and NewWithOverlay.
type Database struct {
	base    kv.Database
	overlay *overlay // nil in strict mode
}

// New wraps base in strict mode: every write returns ErrWriteRejected and
// no write batch is offered (SupportsWriteBatch is false, WriteBatch
// returns ErrNotSupported); reads and read-side capabilities forward
// verbatim.
func New(base kv.Database) *Database {
	return &Database{base: base}
}

// NewWithOverlay wraps base with an owned in-memory overlay. Writes land
// in the overlay; reads consult it first and fall back to base on miss.
func NewWithOverlay(base kv.Database) *Database {
	return &Database{base: base, overlay: newOverlay()}
}

// HasWriteOverlay reports which of the two modes this decorator is in.
func (d *Database) HasWriteOverlay() bool { return d.overlay != nil }

// ClearTempChanges wipes the overlay without touching the wrapped store.
// A no-op (idempotent) in strict mode, since there is nothing to clear.
func (d *Database) ClearTempChanges() {
	if d.overlay != nil {
		d.overlay.reset()
	}
}

func (d *Database) Name() kv.PartitionName { return d.base.Name() }

func (d *Database) Get(key []byte, flags kv.ReadFlags) (kv.Value, bool, error) {
	if d.overlay != nil {
		if v, ok, isTomb := d.overlay.get(key); isTomb {
			return kv.Value{}, false, nil
		} else if ok {
			return v, true, nil
		}
	}
	return d.base.Get(key, flags)
}

func (d *Database) Contains(key []byte) (bool, error) {
	if d.overlay != nil {
		if _, ok, isTomb := d.overlay.get(key); isTomb {
			return false, nil
		} else if ok {
			return true, nil
		}
	}
	return d.base.Contains(key)
}

// MultiGet uses an overlay-first strategy: pass one resolves every key the
// overlay has an opinion on (present or tombstoned); pass two batches the
// remaining misses through the wrapped store's own MultiGet, preserving
// any native batched-I/O benefit it offers.
func (d *Database) MultiGet(keys [][]byte, flags kv.ReadFlags) ([]kv.OptionalValue, error) {
	out := make([]kv.OptionalValue, len(keys))
	if d.overlay == nil {
		return d.base.MultiGet(keys, flags)
	}
	var missKeys [][]byte
	var missIdx []int
	for i, k := range keys {
		v, ok, isTomb := d.overlay.get(k)
		switch {
		case isTomb:
			out[i] = kv.OptionalValue{Ok: false}
		case ok:
			out[i] = kv.OptionalValue{Value: v, Ok: true}
		default:
			missKeys = append(missKeys, k)
			missIdx = append(missIdx, i)
		}
	}
	if len(missKeys) == 0 {
		return out, nil
	}
	missed, err := d.base.MultiGet(missKeys, flags)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		out[idx] = missed[j]
	}
	return out, nil
}

func (d *Database) Put(key, value []byte, _ kv.WriteFlags) error {
	if d.overlay == nil {
		return kv.ErrWriteRejected
	}
	d.overlay.put(key, value)
	return nil
}

func (d *Database) Delete(key []byte, _ kv.WriteFlags) error {
	if d.overlay == nil {
		return kv.ErrWriteRejected
	}
	d.overlay.delete(key)
	return nil
}

func (d *Database) Merge(_, _ []byte, _ kv.WriteFlags) error { return kv.ErrNotSupported }

func (d *Database) Flush(onlyWAL bool) error {
	if d.overlay != nil {
		return nil
	}
	return d.base.Flush(onlyWAL)
}

func (d *Database) Clear() error {
	if d.overlay == nil {
		return kv.ErrWriteRejected
	}
	d.overlay.reset()
	return nil
}

func (d *Database) Compact() error { return d.base.Compact() }

func (d *Database) GatherMetric() kv.Metric { return d.base.GatherMetric() }

func (d *Database) Close() error {
	if d.overlay != nil {
		d.overlay.reset()
	}
	return nil
}

func (d *Database) SupportsWriteBatch() bool { return d.overlay != nil }
func (d *Database) SupportsMerge() bool      { return false }
func (d *Database) SupportsMultiGet() bool   { return d.base.SupportsMultiGet() }
func (d *Database) SupportsSortedView() bool { return d.base.SupportsSortedView() }

func (d *Database) WriteBatch() (kv.WriteBatch, error) {
	if d.overlay == nil {
		return nil, kv.ErrNotSupported
	}
	return &writeBatch{d: d, a: arena.New(0)}, nil
}

// FirstKey, LastKey and GetViewBetween forward to the wrapped store and so
// do not merge overlay entries in: a deliberate, documented limitation.
// Overlay-aware ordered traversal is available through Iterator(true).
func (d *Database) FirstKey() (kv.Value, bool, error) { return d.base.FirstKey() }
func (d *Database) LastKey() (kv.Value, bool, error)  { return d.base.LastKey() }
func (d *Database) GetViewBetween(low, high []byte) (kv.SortedView, error) {
	return d.base.GetViewBetween(low, high)
}

type writeBatch struct {
	d   *Database
	a   *arena.Arena
	ops []kv.Op
}

func (b *writeBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, kv.Op{Kind: kv.OpPut, Key: b.a.Copy(key), Value: b.a.Copy(value)})
	return nil
}
func (b *writeBatch) Delete(key []byte) error {
	b.ops = append(b.ops, kv.Op{Kind: kv.OpDelete, Key: b.a.Copy(key)})
	return nil
}
func (b *writeBatch) Merge(_, _ []byte, _ kv.WriteFlags) error { return kv.ErrNotSupported }
func (b *writeBatch) Pending() int                             { return len(b.ops) }
func (b *writeBatch) Clear()                                   { b.ops = nil; b.a.Reset() }
func (b *writeBatch) Commit() error {
	for _, op := range b.ops {
		switch op.Kind {
		case kv.OpPut:
			b.d.overlay.put(op.Key, op.Value)
		case kv.OpDelete:
			b.d.overlay.delete(op.Key)
		}
	}
	b.ops = nil
	return nil
}
func (b *writeBatch) Close() error { b.ops = nil; b.a.Reset(); return nil }

// --- overlay: the in-memory write shadow ---

type overlayItem struct {
	key     string
	val     []byte
	tomb    bool
	hasItem bool // always true once inserted; distinguishes "never touched"
}

func overlayLess(a, b overlayItem) bool { return a.key < b.key }

// overlay is a dedicated tri-state (value / tombstone / untouched) KV
// shadow. It is deliberately not built on top of memdb.Database: memdb's
// Put(nil) = delete convention collapses "explicitly deleted" and "never
// written" into the same absent state, but the ReadOnly decorator needs to
// tell those apart so a deleted key doesn't fall through to the base store.
type overlay struct {
	values map[string][]byte
	tomb   map[string]struct{}
	order  *btree.BTreeG[overlayItem]
	a      *arena.Arena
}

func newOverlay() *overlay {
	return &overlay{
		values: make(map[string][]byte),
		tomb:   make(map[string]struct{}),
		order:  btree.NewG(32, overlayLess),
		a:      arena.New(0),
	}
}

func (o *overlay) reset() {
	o.values = make(map[string][]byte)
	o.tomb = make(map[string]struct{})
	o.order = btree.NewG(32, overlayLess)
	o.a.Reset()
}

// get returns (value, ok, isTombstone). ok and isTombstone are never both
// true; if neither is true the overlay has no opinion on key.
func (o *overlay) get(key []byte) (kv.Value, bool, bool) {
	k := string(key)
	if _, isTomb := o.tomb[k]; isTomb {
		return kv.Value{}, false, true
	}
	if v, ok := o.values[k]; ok {
		return kv.StaticValue(v), true, false
	}
	return kv.Value{}, false, false
}

func (o *overlay) put(key, value []byte) {
	if value == nil {
		o.delete(key)
		return
	}
	k := string(o.a.Copy(key))
	cv := o.a.Copy(value)
	if _, existed := o.values[k]; !existed {
		if _, wasTomb := o.tomb[k]; !wasTomb {
			o.order.ReplaceOrInsert(overlayItem{key: k, hasItem: true})
		}
	}
	delete(o.tomb, k)
	o.values[k] = cv
}

func (o *overlay) delete(key []byte) {
	k := string(key)
	if _, existed := o.values[k]; !existed {
		if _, wasTomb := o.tomb[k]; !wasTomb {
			o.order.ReplaceOrInsert(overlayItem{key: string(o.a.Copy(key)), hasItem: true})
		}
	}
	delete(o.values, k)
	o.tomb[k] = struct{}{}
}

// snapshot deep-copies the overlay's current state.
func (o *overlay) snapshot() *overlaySnapshot {
	values := make(map[string][]byte, len(o.values))
	for k, v := range o.values {
		cp := make([]byte, len(v))
		copy(cp, v)
		values[k] = cp
	}
	tomb := make(map[string]struct{}, len(o.tomb))
	for k := range o.tomb {
		tomb[k] = struct{}{}
	}
	return &overlaySnapshot{values: values, tomb: tomb}
}

type overlaySnapshot struct {
	values map[string][]byte
	tomb   map[string]struct{}
}

func (s *overlaySnapshot) get(key []byte) (kv.Value, bool, bool) {
	k := string(key)
	if _, isTomb := s.tomb[k]; isTomb {
		return kv.Value{}, false, true
	}
	if v, ok := s.values[k]; ok {
		return kv.StaticValue(v), true, false
	}
	return kv.Value{}, false, false
}
