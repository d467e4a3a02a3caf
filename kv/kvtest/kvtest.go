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

// Package kvtest holds shared conformance scenarios that every kv.Database
// backend is expected to satisfy, so each backend's own test file can call
// these instead of re-deriving the same round-trip and isolation checks.
package kvtest

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
)

// PutGetDeleteRoundTrip exercises the basic contract: absent before write,
// present with the written bytes after Put, absent again after Delete.
func PutGetDeleteRoundTrip(t *testing.T, db kv.Database) {
	t.Helper()
	key := []byte("round-trip-key")

	_, ok, err := db.Get(key, 0)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put(key, []byte("v1"), 0))
	v, ok, err := db.Get(key, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v.Bytes())
	v.Release()

	contains, err := db.Contains(key)
	require.NoError(t, err)
	require.True(t, contains)

	require.NoError(t, db.Delete(key, 0))
	_, ok, err = db.Get(key, 0)
	require.NoError(t, err)
	require.False(t, ok)
}

// PutNilIsDelete checks the documented Put(key, nil) = delete convention.
func PutNilIsDelete(t *testing.T, db kv.Database) {
	t.Helper()
	key := []byte("nil-put-key")
	require.NoError(t, db.Put(key, []byte("x"), 0))
	require.NoError(t, db.Put(key, nil, 0))
	_, ok, err := db.Get(key, 0)
	require.NoError(t, err)
	require.False(t, ok)
}

// MultiGetPreservesOrder checks MultiGet returns one OptionalValue per key,
// in the same order as requested, whether or not the backend advertises a
// native batched primitive.
func MultiGetPreservesOrder(t *testing.T, db kv.Database) {
	t.Helper()
	keys := [][]byte{[]byte("mg-a"), []byte("mg-b"), []byte("mg-c")}
	require.NoError(t, db.Put(keys[0], []byte("A"), 0))
	require.NoError(t, db.Put(keys[2], []byte("C"), 0))

	out, err := db.MultiGet(keys, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.True(t, out[0].Ok)
	require.Equal(t, []byte("A"), out[0].Value.Bytes())
	require.False(t, out[1].Ok)
	require.True(t, out[2].Ok)
	require.Equal(t, []byte("C"), out[2].Value.Bytes())
	out[0].Value.Release()
	out[2].Value.Release()
}

// OrderedIterationIsSorted checks that Iterator(true) yields keys in
// ascending lexicographic order.
func OrderedIterationIsSorted(t *testing.T, db kv.Database, keys []string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, db.Put([]byte(k), []byte("v"), 0))
	}
	it, err := db.Iterator(true)
	require.NoError(t, err)
	defer it.Close()

	var seen []string
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, string(e.Key.Bytes()))
		e.Release()
	}
	want := append([]string(nil), keys...)
	sort.Strings(want)
	require.Equal(t, want, seen)
}

// SnapshotIsolatesFromLaterWrites checks that a Snapshot taken before a
// write does not observe that write.
func SnapshotIsolatesFromLaterWrites(t *testing.T, db kv.Database) {
	t.Helper()
	key := []byte("snap-key")
	require.NoError(t, db.Put(key, []byte("before"), 0))

	snap, err := db.Snapshot()
	require.NoError(t, err)
	defer snap.Close()

	require.NoError(t, db.Put(key, []byte("after"), 0))

	v, ok, err := snap.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("before"), v.Bytes())
	v.Release()

	live, ok, err := db.Get(key, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("after"), live.Bytes())
	live.Release()
}

// WriteBatchCommitsAllOrNothingOnSuccess checks a successful Commit applies
// every queued op and leaves the batch empty.
func WriteBatchCommitsAllOrNothingOnSuccess(t *testing.T, db kv.Database) {
	t.Helper()
	wb, err := kv.NewWriteBatch(db)
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, wb.Put([]byte("wb-a"), []byte("1")))
	require.NoError(t, wb.Put([]byte("wb-b"), []byte("2")))
	require.Equal(t, 2, wb.Pending())

	require.NoError(t, wb.Commit())
	require.Equal(t, 0, wb.Pending())

	for k, want := range map[string]string{"wb-a": "1", "wb-b": "2"} {
		v, ok, err := db.Get([]byte(k), 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, string(v.Bytes()))
		v.Release()
	}
}

// BoundaryValuesRoundTrip checks that an empty key and an empty value
// round-trip as present-but-empty, distinctly from an absent key, and that
// keys/values containing 0x00 and 0xFF bytes survive a Put/Get round-trip
// intact.
func BoundaryValuesRoundTrip(t *testing.T, db kv.Database) {
	t.Helper()

	emptyKey := []byte{}
	_, ok, err := db.Get(emptyKey, 0)
	require.NoError(t, err)
	require.False(t, ok, "empty key must be absent before any write")

	require.NoError(t, db.Put(emptyKey, []byte{}, 0))
	v, ok, err := db.Get(emptyKey, 0)
	require.NoError(t, err)
	require.True(t, ok, "empty key must be present, not absent, after Put")
	require.Equal(t, []byte{}, v.Bytes())
	v.Release()

	contains, err := db.Contains(emptyKey)
	require.NoError(t, err)
	require.True(t, contains)

	require.NoError(t, db.Delete(emptyKey, 0))
	_, ok, err = db.Get(emptyKey, 0)
	require.NoError(t, err)
	require.False(t, ok)

	binKey := []byte{0x00, 0xFF, 0x00, 0xFF}
	binValue := []byte{0xFF, 0x00, 0xFF, 0x00, 0x00}
	require.NoError(t, db.Put(binKey, binValue, 0))
	v, ok, err = db.Get(binKey, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, binValue, v.Bytes())
	v.Release()
	require.NoError(t, db.Delete(binKey, 0))
}

// SortedViewRoundTrip checks GetViewBetween + StartBefore + MoveNext yields
// the smallest key strictly greater than the StartBefore argument, matching
// the sorted-view round-trip law, for backends that advertise sorted views.
func SortedViewRoundTrip(t *testing.T, db kv.Database) {
	t.Helper()
	if !db.SupportsSortedView() {
		t.Skip("backend does not support sorted views")
	}
	for _, k := range []string{"a", "c", "e", "g"} {
		require.NoError(t, db.Put([]byte(k), []byte(k), 0))
	}
	view, err := db.GetViewBetween([]byte("a"), nil)
	require.NoError(t, err)
	defer view.Close()

	ok, err := view.StartBefore([]byte("c"))
	require.NoError(t, err)
	require.True(t, ok)

	e, ok, err := view.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "e", string(e.Key.Bytes()))
	e.Release()
}
