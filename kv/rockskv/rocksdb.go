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

//go:build rocksdb

// Package rockskv is the persistent kv.Database backend built on
// github.com/linxGnu/grocksdb. It is compiled only with the "rocksdb" build
// tag since grocksdb is a cgo binding, the way erigon-lib keeps mdbx behind
// its own build constraints and leaves the pure-Go backends (memdb, nulldb)
// buildable everywhere.
package rockskv

import (
	"bytes"
	"sort"
	"sync"

	"github.com/linxGnu/grocksdb"

	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/kvcore/kv"
)

// Database is a kv.Database backed by a single RocksDB column family.
type Database struct {
	name kv.PartitionName

	db *grocksdb.DB
	cf *grocksdb.ColumnFamilyHandle // nil means the default column family

	wo *grocksdb.WriteOptions
	ro *grocksdb.ReadOptions

	metrics *kv.InstanceMetrics
	log     log.Logger

	mu     sync.RWMutex
	closed bool
}

// SetLogger overrides the default root logger, the same hook memdb.Database
// exposes.
func (d *Database) SetLogger(l log.Logger) { d.log = l }

// Open opens (creating if absent) a RocksDB database at path, using the
// default column family.
func Open(name kv.PartitionName, path string) (*Database, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := grocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, kv.NewStorageError("open", err)
	}
	return newDatabase(name, db, nil), nil
}

// OpenColumnFamilies opens path with one RocksDB column family per name in
// cfNames, mirroring erigon-lib's per-table MDBX sub-databases. The caller
// gets back one *Database per requested family, all sharing the underlying
// *grocksdb.DB handle. Close on any of them only destroys its own write/read
// options; it destroys neither its column family handle nor the shared
// *grocksdb.DB, and none of the returned handles ever closes the shared
// database.
func OpenColumnFamilies(path string, names []kv.PartitionName) (map[kv.PartitionName]*Database, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	cfNames := make([]string, 0, len(names)+1)
	cfNames = append(cfNames, "default")
	cfOpts := make([]*grocksdb.Options, 0, len(names)+1)
	cfOpts = append(cfOpts, grocksdb.NewDefaultOptions())
	for _, n := range names {
		cfNames = append(cfNames, n.String())
		cfOpts = append(cfOpts, grocksdb.NewDefaultOptions())
	}

	db, handles, err := grocksdb.OpenDbColumnFamilies(opts, path, cfNames, cfOpts)
	if err != nil {
		return nil, kv.NewStorageError("open_column_families", err)
	}

	out := make(map[kv.PartitionName]*Database, len(names))
	for i, n := range names {
		out[n] = newDatabase(n, db, handles[i+1])
	}
	return out, nil
}

func newDatabase(name kv.PartitionName, db *grocksdb.DB, cf *grocksdb.ColumnFamilyHandle) *Database {
	wo := grocksdb.NewDefaultWriteOptions()
	ro := grocksdb.NewDefaultReadOptions()
	return &Database{
		name:    name,
		db:      db,
		cf:      cf,
		wo:      wo,
		ro:      ro,
		metrics: kv.NewInstanceMetrics(name.String()),
		log:     log.Root(),
	}
}

func (d *Database) Name() kv.PartitionName { return d.name }

func (d *Database) checkOpen() error {
	if d.closed {
		return kv.ErrClosed
	}
	return nil
}

func (d *Database) get(ro *grocksdb.ReadOptions, key []byte) (kv.Value, bool, error) {
	var slice *grocksdb.Slice
	var err error
	if d.cf != nil {
		slice, err = d.db.GetCF(ro, d.cf, key)
	} else {
		slice, err = d.db.Get(ro, key)
	}
	if err != nil {
		return kv.Value{}, false, kv.NewStorageError("get", err)
	}
	d.metrics.RecordRead()
	if !slice.Exists() {
		slice.Free()
		return kv.Value{}, false, nil
	}
	out := make([]byte, slice.Size())
	copy(out, slice.Data())
	slice.Free()
	return kv.StaticValue(out), true, nil
}

func (d *Database) Get(key []byte, flags kv.ReadFlags) (kv.Value, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	return d.get(d.ro, key)
}

// MultiGet issues one RocksDB Get per key under a single RLock, rather than
// going through kv.DefaultMultiGet (which would re-lock per key via the
// exported Get and risks a recursive RWMutex RLock).
func (d *Database) MultiGet(keys [][]byte, flags kv.ReadFlags) ([]kv.OptionalValue, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]kv.OptionalValue, len(keys))
	for i, k := range keys {
		v, ok, err := d.get(d.ro, k)
		if err != nil {
			return nil, err
		}
		out[i] = kv.OptionalValue{Value: v, Ok: ok}
	}
	return out, nil
}

func (d *Database) Put(key, value []byte, flags kv.WriteFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	wo := d.wo
	if flags.Has(kv.DisableWAL) {
		wo = grocksdb.NewDefaultWriteOptions()
		wo.DisableWAL(true)
		defer wo.Destroy()
	}
	var err error
	switch {
	case value == nil && d.cf != nil:
		err = d.db.DeleteCF(wo, d.cf, key)
	case value == nil:
		err = d.db.Delete(wo, key)
	case d.cf != nil:
		err = d.db.PutCF(wo, d.cf, key, value)
	default:
		err = d.db.Put(wo, key, value)
	}
	if err != nil {
		return kv.NewStorageError("put", err)
	}
	d.metrics.RecordWrite()
	return nil
}

func (d *Database) Delete(key []byte, flags kv.WriteFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	var err error
	if d.cf != nil {
		err = d.db.DeleteCF(d.wo, d.cf, key)
	} else {
		err = d.db.Delete(d.wo, key)
	}
	if err != nil {
		return kv.NewStorageError("delete", err)
	}
	d.metrics.RecordWrite()
	return nil
}

func (d *Database) Contains(key []byte) (bool, error) {
	_, ok, err := d.Get(key, 0)
	return ok, err
}

func (d *Database) newIterator(ro *grocksdb.ReadOptions) *grocksdb.Iterator {
	if d.cf != nil {
		return d.db.NewIteratorCF(ro, d.cf)
	}
	return d.db.NewIterator(ro)
}

func (d *Database) Iterator(ordered bool) (kv.Iterator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	// RocksDB iterates in key order regardless of the ordered hint; the
	// flag only matters to backends (memdb) with a cheaper unordered path.
	it := d.newIterator(d.ro)
	it.SeekToFirst()
	return &iterator{it: it}, nil
}

type iterator struct {
	it *grocksdb.Iterator
}

func (i *iterator) Next() (kv.Entry, bool, error) {
	if !i.it.Valid() {
		if err := i.it.Err(); err != nil {
			return kv.Entry{}, false, kv.NewStorageError("iterate", err)
		}
		return kv.Entry{}, false, nil
	}
	k := i.it.Key()
	v := i.it.Value()
	key := make([]byte, k.Size())
	copy(key, k.Data())
	val := make([]byte, v.Size())
	copy(val, v.Data())
	k.Free()
	v.Free()
	i.it.Next()
	return kv.Entry{Key: kv.StaticValue(key), Value: kv.StaticValue(val)}, true, nil
}

func (i *iterator) Close() error {
	i.it.Close()
	return nil
}

func (d *Database) Snapshot() (kv.Snapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	snap := d.db.NewSnapshot()
	ro := grocksdb.NewDefaultReadOptions()
	ro.SetSnapshot(snap)
	return &snapshot{d: d, snap: snap, ro: ro}, nil
}

type snapshot struct {
	d    *Database
	snap *grocksdb.Snapshot
	ro   *grocksdb.ReadOptions
}

func (s *snapshot) Get(key []byte) (kv.Value, bool, error) {
	return s.d.get(s.ro, key)
}

func (s *snapshot) Contains(key []byte) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *snapshot) Iterator(ordered bool) (kv.Iterator, error) {
	it := s.d.newIterator(s.ro)
	it.SeekToFirst()
	return &iterator{it: it}, nil
}

func (s *snapshot) Close() error {
	s.ro.Destroy()
	s.d.db.ReleaseSnapshot(s.snap)
	return nil
}

func (d *Database) Flush(onlyWAL bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if onlyWAL {
		return kv.NewStorageError("flush", d.db.FlushWAL(true))
	}
	fo := grocksdb.NewDefaultFlushOptions()
	defer fo.Destroy()
	if err := d.db.Flush(fo); err != nil {
		return kv.NewStorageError("flush", err)
	}
	d.log.Debug("rockskv: flushed", "partition", d.name.String(), "metric", d.metrics.Snapshot().String())
	return nil
}

// Clear deletes every key by scanning and batch-deleting. RocksDB exposes
// no single-call truncate, the same reason clearKVData in the reference
// drivers built a delete pass over a full scan rather than dropping the
// column family outright.
func (d *Database) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	it := d.newIterator(d.ro)
	defer it.Close()
	wb := grocksdb.NewWriteBatch()
	defer wb.Destroy()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		k := it.Key()
		key := make([]byte, k.Size())
		copy(key, k.Data())
		k.Free()
		if d.cf != nil {
			wb.DeleteCF(d.cf, key)
		} else {
			wb.Delete(key)
		}
	}
	if err := it.Err(); err != nil {
		return kv.NewStorageError("clear", err)
	}
	if err := d.db.Write(d.wo, wb); err != nil {
		return kv.NewStorageError("clear", err)
	}
	d.metrics.Reset()
	d.log.Debug("rockskv: cleared", "partition", d.name.String())
	return nil
}

func (d *Database) Compact() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.cf != nil {
		d.db.CompactRangeCF(d.cf, grocksdb.Range{})
	} else {
		d.db.CompactRange(grocksdb.Range{})
	}
	d.log.Debug("rockskv: compacted", "partition", d.name.String(), "metric", d.metrics.Snapshot().String())
	return nil
}

func (d *Database) GatherMetric() kv.Metric {
	return d.metrics.Snapshot()
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.wo.Destroy()
	d.ro.Destroy()
	// The shared *grocksdb.DB and column family handles outlive any single
	// Database wrapping one family; callers that opened a standalone
	// Database via Open own the *grocksdb.DB and should not reuse it after
	// Close. OpenColumnFamilies callers share it across handles and must
	// coordinate their own teardown of the underlying db.
	if d.cf == nil {
		d.db.Close()
	}
	return nil
}

func (d *Database) SupportsWriteBatch() bool { return true }
func (d *Database) SupportsMerge() bool      { return false }
func (d *Database) SupportsMultiGet() bool   { return true }
func (d *Database) SupportsSortedView() bool { return true }

func (d *Database) WriteBatch() (kv.WriteBatch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &writeBatch{d: d, wb: grocksdb.NewWriteBatch()}, nil
}

type writeBatch struct {
	d       *Database
	wb      *grocksdb.WriteBatch
	pending int
}

func (b *writeBatch) Put(key, value []byte) error {
	if b.d.cf != nil {
		b.wb.PutCF(b.d.cf, key, value)
	} else {
		b.wb.Put(key, value)
	}
	b.pending++
	return nil
}

func (b *writeBatch) Delete(key []byte) error {
	if b.d.cf != nil {
		b.wb.DeleteCF(b.d.cf, key)
	} else {
		b.wb.Delete(key)
	}
	b.pending++
	return nil
}

func (b *writeBatch) Merge(key, value []byte, flags kv.WriteFlags) error {
	return kv.ErrNotSupported
}

func (b *writeBatch) Pending() int { return b.pending }

func (b *writeBatch) Clear() {
	b.wb.Clear()
	b.pending = 0
}

func (b *writeBatch) Commit() error {
	b.d.mu.Lock()
	defer b.d.mu.Unlock()
	if err := b.d.checkOpen(); err != nil {
		return err
	}
	if err := b.d.db.Write(b.d.wo, b.wb); err != nil {
		return kv.NewStorageError("write_batch_commit", err)
	}
	for i := 0; i < b.pending; i++ {
		b.d.metrics.RecordWrite()
	}
	b.pending = 0
	return nil
}

func (b *writeBatch) Close() error {
	b.wb.Destroy()
	return nil
}

func (d *Database) Merge(key, value []byte, flags kv.WriteFlags) error {
	return kv.ErrNotSupported
}

func (d *Database) FirstKey() (kv.Value, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	it := d.newIterator(d.ro)
	defer it.Close()
	it.SeekToFirst()
	if !it.Valid() {
		return kv.Value{}, false, nil
	}
	k := it.Key()
	key := make([]byte, k.Size())
	copy(key, k.Data())
	k.Free()
	return kv.StaticValue(key), true, nil
}

func (d *Database) LastKey() (kv.Value, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	it := d.newIterator(d.ro)
	defer it.Close()
	it.SeekToLast()
	if !it.Valid() {
		return kv.Value{}, false, nil
	}
	k := it.Key()
	key := make([]byte, k.Size())
	copy(key, k.Data())
	k.Free()
	return kv.StaticValue(key), true, nil
}

// GetViewBetween returns a SortedView over [low, high) by seeking RocksDB's
// native iterator, matching memdb's AscendRange semantics.
func (d *Database) GetViewBetween(low, high []byte) (kv.SortedView, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if high != nil && bytes.Compare(low, high) >= 0 {
		return &sortedView{}, nil
	}
	it := d.newIterator(d.ro)
	var entries []kv.Entry
	for it.Seek(low); it.Valid(); it.Next() {
		k := it.Key()
		if high != nil && bytes.Compare(k.Data(), high) >= 0 {
			k.Free()
			break
		}
		key := make([]byte, k.Size())
		copy(key, k.Data())
		k.Free()
		v := it.Value()
		val := make([]byte, v.Size())
		copy(val, v.Data())
		v.Free()
		entries = append(entries, kv.Entry{Key: kv.StaticValue(key), Value: kv.StaticValue(val)})
	}
	err := it.Err()
	it.Close()
	if err != nil {
		return nil, kv.NewStorageError("get_view_between", err)
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

// StartBefore mirrors memdb's sortedView.StartBefore: a binary search over
// the materialized range for the largest key <= value, callable only once
// before the first MoveNext.
func (v *sortedView) StartBefore(value []byte) (bool, error) {
	if v.started {
		return false, nil
	}
	v.started = true
	i := sort.Search(len(v.entries), func(i int) bool {
		return bytes.Compare(v.entries[i].Key.Bytes(), value) > 0
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
