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

package kv_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
)

// fakeDB is a minimal kv.Database that never supports a native write batch,
// so kv.NewWriteBatch always hands back a kv.SequentialWriteBatch. It stores
// puts/deletes in a plain map and can be told to fail its Nth write call
// (1-indexed), to exercise the sequential-fallback's retry discipline.
type fakeDB struct {
	values map[string][]byte

	failOnCall int // 0 means never fail
	calls      int
}

func newFakeDB() *fakeDB {
	return &fakeDB{values: make(map[string][]byte)}
}

func (d *fakeDB) Name() kv.PartitionName { return kv.State }

func (d *fakeDB) Get(key []byte, _ kv.ReadFlags) (kv.Value, bool, error) {
	v, ok := d.values[string(key)]
	if !ok {
		return kv.Value{}, false, nil
	}
	return kv.StaticValue(v), true, nil
}

func (d *fakeDB) MultiGet(keys [][]byte, flags kv.ReadFlags) ([]kv.OptionalValue, error) {
	return kv.DefaultMultiGet(d, keys, flags)
}

func (d *fakeDB) Put(key, value []byte, _ kv.WriteFlags) error {
	d.calls++
	if d.failOnCall != 0 && d.calls == d.failOnCall {
		return errors.New("injected failure")
	}
	if value == nil {
		delete(d.values, string(key))
		return nil
	}
	d.values[string(key)] = append([]byte(nil), value...)
	return nil
}

func (d *fakeDB) Delete(key []byte, _ kv.WriteFlags) error {
	d.calls++
	if d.failOnCall != 0 && d.calls == d.failOnCall {
		return errors.New("injected failure")
	}
	delete(d.values, string(key))
	return nil
}

func (d *fakeDB) Contains(key []byte) (bool, error) {
	_, ok := d.values[string(key)]
	return ok, nil
}

func (d *fakeDB) Iterator(_ bool) (kv.Iterator, error) { return nil, kv.ErrNotSupported }
func (d *fakeDB) Snapshot() (kv.Snapshot, error)       { return nil, kv.ErrNotSupported }
func (d *fakeDB) Flush(_ bool) error                   { return nil }
func (d *fakeDB) Clear() error                         { d.values = make(map[string][]byte); return nil }
func (d *fakeDB) Compact() error                       { return nil }
func (d *fakeDB) GatherMetric() kv.Metric              { return kv.Metric{} }
func (d *fakeDB) Close() error                         { return nil }

func (d *fakeDB) SupportsWriteBatch() bool { return false }
func (d *fakeDB) SupportsMerge() bool      { return false }
func (d *fakeDB) SupportsMultiGet() bool   { return false }
func (d *fakeDB) SupportsSortedView() bool { return false }

func (d *fakeDB) WriteBatch() (kv.WriteBatch, error) { return nil, kv.ErrNotSupported }
func (d *fakeDB) Merge(key, value []byte, flags kv.WriteFlags) error {
	d.calls++
	if d.failOnCall != 0 && d.calls == d.failOnCall {
		return errors.New("injected failure")
	}
	d.values[string(key)] = append([]byte(nil), value...)
	return nil
}
func (d *fakeDB) FirstKey() (kv.Value, bool, error)                 { return kv.Value{}, false, kv.ErrNotSupported }
func (d *fakeDB) LastKey() (kv.Value, bool, error)                  { return kv.Value{}, false, kv.ErrNotSupported }
func (d *fakeDB) GetViewBetween(_, _ []byte) (kv.SortedView, error) { return nil, kv.ErrNotSupported }

func TestNewWriteBatchFallsBackToSequentialWhenUnsupported(t *testing.T) {
	db := newFakeDB()
	require.False(t, db.SupportsWriteBatch())

	wb, err := kv.NewWriteBatch(db)
	require.NoError(t, err)
	require.IsType(t, &kv.SequentialWriteBatch{}, wb)
}

func TestSequentialWriteBatch_CommitAppliesAllOpsInOrder(t *testing.T) {
	db := newFakeDB()
	wb := kv.NewSequentialWriteBatch(db)
	defer wb.Close()

	require.NoError(t, wb.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, wb.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, wb.Delete([]byte("k1")))
	require.Equal(t, 3, wb.Pending())

	require.NoError(t, wb.Commit())
	require.Equal(t, 0, wb.Pending())

	_, ok, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := db.Get([]byte("k2"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(v.Bytes()))
}

// TestSequentialWriteBatch_CommitRetainsFullQueueOnFailure is spec.md §8
// concrete scenario 4: put(k1), put(k2), put(k3) queued against a
// non-atomic target; the injected failure lands on the second apply. Commit
// fails, but Pending() reports the full original queue of 3 (not just the
// 2 unapplied ops), and the target holds only k1. Clearing the injected
// failure and re-committing applies all three.
func TestSequentialWriteBatch_CommitRetainsFullQueueOnFailure(t *testing.T) {
	db := newFakeDB()
	db.failOnCall = 2

	wb := kv.NewSequentialWriteBatch(db)
	defer wb.Close()

	require.NoError(t, wb.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, wb.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, wb.Put([]byte("k3"), []byte("v3")))
	require.Equal(t, 3, wb.Pending())

	err := wb.Commit()
	require.Error(t, err)
	require.Equal(t, 3, wb.Pending())

	v, ok, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", string(v.Bytes()))

	_, ok, err = db.Get([]byte("k2"), 0)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = db.Get([]byte("k3"), 0)
	require.NoError(t, err)
	require.False(t, ok)

	db.failOnCall = 0
	db.calls = 0
	require.NoError(t, wb.Commit())
	require.Equal(t, 0, wb.Pending())

	for k, want := range map[string]string{"k1": "v1", "k2": "v2", "k3": "v3"} {
		v, ok, err := db.Get([]byte(k), 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, string(v.Bytes()))
	}
}

func TestSequentialWriteBatch_ClearResetsQueue(t *testing.T) {
	db := newFakeDB()
	wb := kv.NewSequentialWriteBatch(db)
	defer wb.Close()

	require.NoError(t, wb.Put([]byte("k1"), []byte("v1")))
	require.Equal(t, 1, wb.Pending())
	wb.Clear()
	require.Equal(t, 0, wb.Pending())

	require.NoError(t, wb.Commit())
	_, ok, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)
	require.False(t, ok, "cleared op must never reach the target")
}
