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

package memdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/memdb"
	"github.com/erigontech/kvcore/kv/kvtest"
)

func TestRoundTrip(t *testing.T) {
	db := memdb.New(kv.State)
	defer db.Close()
	kvtest.PutGetDeleteRoundTrip(t, db)
}

func TestPutNilIsDelete(t *testing.T) {
	db := memdb.New(kv.State)
	defer db.Close()
	kvtest.PutNilIsDelete(t, db)
}

func TestMultiGetFallsBackSequentially(t *testing.T) {
	db := memdb.New(kv.State)
	defer db.Close()
	require.False(t, db.SupportsMultiGet())
	kvtest.MultiGetPreservesOrder(t, db)
}

func TestOrderedIterationIsSorted(t *testing.T) {
	db := memdb.New(kv.Storage)
	defer db.Close()
	kvtest.OrderedIterationIsSorted(t, db, []string{"zebra", "apple", "mango", "kiwi"})
}

func TestUnorderedIterationCoversEveryEntry(t *testing.T) {
	db := memdb.New(kv.Storage)
	defer db.Close()
	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range want {
		require.NoError(t, db.Put([]byte(k), []byte(v), 0))
	}
	it, err := db.Iterator(false)
	require.NoError(t, err)
	defer it.Close()

	got := make(map[string]string, len(want))
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got[string(e.Key.Bytes())] = string(e.Value.Bytes())
		e.Release()
	}
	require.Equal(t, want, got)
}

func TestSnapshotIsolation(t *testing.T) {
	db := memdb.New(kv.Code)
	defer db.Close()
	kvtest.SnapshotIsolatesFromLaterWrites(t, db)
}

func TestWriteBatchIsAtomic(t *testing.T) {
	db := memdb.New(kv.Code)
	defer db.Close()
	require.True(t, db.SupportsWriteBatch())
	kvtest.WriteBatchCommitsAllOrNothingOnSuccess(t, db)
}

func TestSortedViewRoundTrip(t *testing.T) {
	db := memdb.New(kv.Blocks)
	defer db.Close()
	kvtest.SortedViewRoundTrip(t, db)
}

func TestBoundaryValuesRoundTrip(t *testing.T) {
	db := memdb.New(kv.State)
	defer db.Close()
	kvtest.BoundaryValuesRoundTrip(t, db)
}

func TestFirstLastKey(t *testing.T) {
	db := memdb.New(kv.Blocks)
	defer db.Close()

	_, ok, err := db.FirstKey()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put([]byte("b"), []byte("2"), 0))
	require.NoError(t, db.Put([]byte("a"), []byte("1"), 0))
	require.NoError(t, db.Put([]byte("c"), []byte("3"), 0))

	first, ok, err := db.FirstKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", string(first.Bytes()))

	last, ok, err := db.LastKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c", string(last.Bytes()))
}

func TestGetViewBetweenEmptyRange(t *testing.T) {
	db := memdb.New(kv.Blocks)
	defer db.Close()
	require.NoError(t, db.Put([]byte("a"), []byte("1"), 0))

	view, err := db.GetViewBetween([]byte("z"), []byte("a"))
	require.NoError(t, err)
	defer view.Close()

	_, ok, err := view.MoveNext()
	require.NoError(t, err)
	require.False(t, ok)
}

// TestClearResetsMetricsToo exercises the resolved open question: memdb.Clear
// resets the instance's metric counters along with its data (see DESIGN.md).
func TestClearResetsMetricsToo(t *testing.T) {
	db := memdb.New(kv.Metadata)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k1"), []byte("v1"), 0))
	require.NoError(t, db.Put([]byte("k2"), []byte("v2"), 0))
	_, _, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)

	before := db.GatherMetric()
	require.Greater(t, before.TotalWrites, uint64(0))
	require.Greater(t, before.TotalReads, uint64(0))

	require.NoError(t, db.Clear())

	after := db.GatherMetric()
	require.Equal(t, uint64(0), after.TotalWrites)
	require.Equal(t, uint64(0), after.TotalReads)

	_, ok, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClosedDatabaseRejectsOperations(t *testing.T) {
	db := memdb.New(kv.State)
	require.NoError(t, db.Close())

	_, _, err := db.Get([]byte("x"), 0)
	require.ErrorIs(t, err, kv.ErrClosed)

	err = db.Put([]byte("x"), []byte("y"), 0)
	require.ErrorIs(t, err, kv.ErrClosed)
}
