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

// Package memdb is the in-memory reference backend. It keeps a map for
// O(1) point access and a btree.BTreeG index for ordered iteration,
// first/last-key and sorted-view support.
package memdb

import (
	"sort"
	"strings"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/google/btree"

	"github.com/erigontech/kvcore/internal/arena"
	"github.com/erigontech/kvcore/kv"
)

type item struct {
	key string
	val []byte
}

func less(a, b item) bool { return a.key < b.key }

// Database is the in-memory Database implementation. It does not persist
// anything; all data is lost on Close. Not safe for concurrent use.
type Database struct {
	name    kv.PartitionName
	data    map[string][]byte
	order   *btree.BTreeG[item]
	arena   *arena.Arena
	metrics *kv.InstanceMetrics
	log     log.Logger
	closed  bool
}

// New returns an empty in-memory Database for the given partition.
func New(name kv.PartitionName) *Database {
	return &Database{
		name:    name,
		data:    make(map[string][]byte),
		order:   btree.NewG(32, less),
		arena:   arena.New(0),
		metrics: kv.NewInstanceMetrics("memdb:" + name.String()),
		log:     log.Root(),
	}
}

// SetLogger overrides the logger used for Debug-level lifecycle events.
func (d *Database) SetLogger(l log.Logger) { d.log = l }

func (d *Database) Name() kv.PartitionName { return d.name }

func (d *Database) checkOpen() error {
	if d.closed {
		return kv.ErrClosed
	}
	return nil
}

func (d *Database) Get(key []byte, _ kv.ReadFlags) (kv.Value, bool, error) {
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	d.metrics.RecordRead()
	v, ok := d.data[string(key)]
	if !ok {
		return kv.Value{}, false, nil
	}
	return kv.StaticValue(v), true, nil
}

func (d *Database) MultiGet(keys [][]byte, flags kv.ReadFlags) ([]kv.OptionalValue, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return kv.DefaultMultiGet(d, keys, flags)
}

func (d *Database) Put(key, value []byte, _ kv.WriteFlags) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if value == nil {
		return d.Delete(key, 0)
	}
	k := string(key)
	cv := d.arena.Copy(value)
	if _, existed := d.data[k]; !existed {
		ck := string(d.arena.Copy(key))
		d.order.ReplaceOrInsert(item{key: ck, val: cv})
	} else {
		d.order.ReplaceOrInsert(item{key: k, val: cv})
	}
	d.data[k] = cv
	d.metrics.RecordWrite()
	d.metrics.SetSize(uint64(len(d.data)))
	return nil
}

func (d *Database) Delete(key []byte, _ kv.WriteFlags) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	k := string(key)
	if _, ok := d.data[k]; ok {
		delete(d.data, k)
		d.order.Delete(item{key: k})
	}
	d.metrics.RecordWrite()
	d.metrics.SetSize(uint64(len(d.data)))
	return nil
}

func (d *Database) Contains(key []byte) (bool, error) {
	if err := d.checkOpen(); err != nil {
		return false, err
	}
	d.metrics.RecordRead()
	_, ok := d.data[string(key)]
	return ok, nil
}

func (d *Database) Iterator(ordered bool) (kv.Iterator, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if ordered {
		entries := make([]kv.Entry, 0, d.order.Len())
		d.order.Ascend(func(it item) bool {
			entries = append(entries, kv.Entry{
				Key:   kv.StaticValue([]byte(it.key)),
				Value: kv.StaticValue(it.val),
			})
			return true
		})
		return &sliceIterator{entries: entries}, nil
	}
	// Unordered: reflects the table at creation time; post-creation
	// mutations are intentionally unspecified here.
	entries := make([]kv.Entry, 0, len(d.data))
	for k, v := range d.data {
		entries = append(entries, kv.Entry{
			Key:   kv.StaticValue([]byte(k)),
			Value: kv.StaticValue(v),
		})
	}
	return &sliceIterator{entries: entries}, nil
}

type sliceIterator struct {
	entries []kv.Entry
	pos     int
}

func (it *sliceIterator) Next() (kv.Entry, bool, error) {
	if it.pos >= len(it.entries) {
		return kv.Entry{}, false, nil
	}
	e := it.entries[it.pos]
	it.pos++
	return e, true, nil
}

func (it *sliceIterator) Close() error {
	it.entries = nil
	return nil
}

func (d *Database) Snapshot() (kv.Snapshot, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	clone := make(map[string][]byte, len(d.data))
	for k, v := range d.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		clone[k] = cp
	}
	d.log.Debug("memdb: snapshot taken", "partition", d.name.String(), "entries", len(clone))
	return &snapshot{name: d.name, data: clone}, nil
}

type snapshot struct {
	name   kv.PartitionName
	data   map[string][]byte
	closed bool
}

func (s *snapshot) Get(key []byte) (kv.Value, bool, error) {
	if s.closed {
		return kv.Value{}, false, kv.ErrClosed
	}
	v, ok := s.data[string(key)]
	if !ok {
		return kv.Value{}, false, nil
	}
	return kv.StaticValue(v), true, nil
}

func (s *snapshot) Contains(key []byte) (bool, error) {
	if s.closed {
		return false, kv.ErrClosed
	}
	_, ok := s.data[string(key)]
	return ok, nil
}

func (s *snapshot) Iterator(ordered bool) (kv.Iterator, error) {
	if s.closed {
		return nil, kv.ErrClosed
	}
	entries := make([]kv.Entry, 0, len(s.data))
	for k, v := range s.data {
		entries = append(entries, kv.Entry{Key: kv.StaticValue([]byte(k)), Value: kv.StaticValue(v)})
	}
	if ordered {
		sort.Slice(entries, func(i, j int) bool {
			return string(entries[i].Key.Bytes()) < string(entries[j].Key.Bytes())
		})
	}
	return &sliceIterator{entries: entries}, nil
}

func (s *snapshot) Close() error {
	s.closed = true
	s.data = nil
	return nil
}

func (d *Database) Flush(_ bool) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return nil
}

// Clear wipes all entries. Resolved open question: Clear also resets the
// instance's metric counters (see DESIGN.md).
func (d *Database) Clear() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.data = make(map[string][]byte)
	d.order = btree.NewG(32, less)
	d.arena.Reset()
	d.metrics.Reset()
	d.log.Debug("memdb: cleared", "partition", d.name.String())
	return nil
}

func (d *Database) Compact() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return nil
}

func (d *Database) GatherMetric() kv.Metric {
	m := d.metrics.Snapshot()
	m.MemtableSize = uint64(d.arena.Bytes())
	return m
}

func (d *Database) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.data = nil
	d.order = nil
	d.arena.Reset()
	return nil
}

func (d *Database) SupportsWriteBatch() bool { return true }
func (d *Database) SupportsMerge() bool      { return false }
func (d *Database) SupportsMultiGet() bool   { return false }
func (d *Database) SupportsSortedView() bool { return true }

// WriteBatch returns an atomic batch: in-memory map writes can't fail
// midway short of allocation failure, so applying the queue happens
// entirely in Commit with no partial-visibility window.
func (d *Database) WriteBatch() (kv.WriteBatch, error) {
	return &writeBatch{db: d, a: arena.New(0)}, nil
}

type writeBatch struct {
	db  *Database
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

func (b *writeBatch) Merge(key, value []byte, flags kv.WriteFlags) error {
	return kv.ErrNotSupported
}

func (b *writeBatch) Pending() int { return len(b.ops) }

func (b *writeBatch) Clear() {
	b.ops = nil
	b.a.Reset()
}

func (b *writeBatch) Commit() error {
	if err := b.db.checkOpen(); err != nil {
		return err
	}
	for _, op := range b.ops {
		switch op.Kind {
		case kv.OpPut:
			if err := b.db.Put(op.Key, op.Value, op.Flags); err != nil {
				return err
			}
		case kv.OpDelete:
			if err := b.db.Delete(op.Key, op.Flags); err != nil {
				return err
			}
		}
	}
	b.ops = nil
	return nil
}

func (b *writeBatch) Close() error {
	b.ops = nil
	b.a.Reset()
	return nil
}

func (d *Database) Merge(key, value []byte, flags kv.WriteFlags) error {
	return kv.ErrNotSupported
}

func (d *Database) FirstKey() (kv.Value, bool, error) {
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	it, ok := d.order.Min()
	if !ok {
		return kv.Value{}, false, nil
	}
	return kv.StaticValue([]byte(it.key)), true, nil
}

func (d *Database) LastKey() (kv.Value, bool, error) {
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	it, ok := d.order.Max()
	if !ok {
		return kv.Value{}, false, nil
	}
	return kv.StaticValue([]byte(it.key)), true, nil
}

// GetViewBetween materializes [low, high) from the ordered index into a
// SortedView. An empty range (low >= high, high non-nil) yields an empty
// view rather than an error.
func (d *Database) GetViewBetween(low, high []byte) (kv.SortedView, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if high != nil && strings.Compare(string(low), string(high)) >= 0 {
		return &sortedView{}, nil
	}
	var entries []kv.Entry
	lowItem := item{key: string(low)}
	visit := func(it item) bool {
		entries = append(entries, kv.Entry{
			Key:   kv.StaticValue([]byte(it.key)),
			Value: kv.StaticValue(it.val),
		})
		return true
	}
	if high == nil {
		d.order.AscendGreaterOrEqual(lowItem, visit)
	} else {
		d.order.AscendRange(lowItem, item{key: string(high)}, visit)
	}
	return &sortedView{entries: entries}, nil
}

type sortedView struct {
	entries []kv.Entry
	pos     int
	started bool
}

func (v *sortedView) MoveNext() (kv.Entry, bool, error) {
	if v.pos >= len(v.entries) {
		return kv.Entry{}, false, nil
	}
	e := v.entries[v.pos]
	v.pos++
	return e, true, nil
}

// StartBefore binary-searches the materialized range for the largest key
// <= value, positioning the cursor there so the next MoveNext yields its
// successor.
func (v *sortedView) StartBefore(value []byte) (bool, error) {
	if v.started {
		return false, nil
	}
	v.started = true
	target := string(value)
	i := sort.Search(len(v.entries), func(i int) bool {
		return string(v.entries[i].Key.Bytes()) > target
	})
	if i == 0 {
		v.pos = 0
		return false, nil
	}
	v.pos = i
	return true, nil
}

func (v *sortedView) Close() error {
	v.entries = nil
	return nil
}
