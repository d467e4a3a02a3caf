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

package rockskv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/kvtest"
	"github.com/erigontech/kvcore/kv/rockskv"
)

func open(t *testing.T) *rockskv.Database {
	t.Helper()
	db, err := rockskv.Open(kv.State, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRoundTrip(t *testing.T) {
	kvtest.PutGetDeleteRoundTrip(t, open(t))
}

func TestMultiGetPreservesOrder(t *testing.T) {
	kvtest.MultiGetPreservesOrder(t, open(t))
}

func TestOrderedIterationIsSorted(t *testing.T) {
	kvtest.OrderedIterationIsSorted(t, open(t), []string{"zebra", "apple", "mango", "kiwi"})
}

func TestSnapshotIsolation(t *testing.T) {
	kvtest.SnapshotIsolatesFromLaterWrites(t, open(t))
}

func TestWriteBatchCommits(t *testing.T) {
	kvtest.WriteBatchCommitsAllOrNothingOnSuccess(t, open(t))
}

func TestSortedViewRoundTrip(t *testing.T) {
	kvtest.SortedViewRoundTrip(t, open(t))
}

func TestBoundaryValuesRoundTrip(t *testing.T) {
	kvtest.BoundaryValuesRoundTrip(t, open(t))
}

func TestClearRemovesEverything(t *testing.T) {
	db := open(t)
	require.NoError(t, db.Put([]byte("k1"), []byte("v1"), 0))
	require.NoError(t, db.Put([]byte("k2"), []byte("v2"), 0))

	require.NoError(t, db.Clear())

	_, ok, err := db.Get([]byte("k1"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestColumnFamiliesAreIsolated(t *testing.T) {
	dbs, err := rockskv.OpenColumnFamilies(t.TempDir(), []kv.PartitionName{kv.Receipts, kv.BlobTransactions})
	require.NoError(t, err)
	defer func() {
		for _, d := range dbs {
			_ = d.Close()
		}
	}()

	require.NoError(t, dbs[kv.Receipts].Put([]byte("k"), []byte("receipt-value"), 0))
	_, ok, err := dbs[kv.BlobTransactions].Get([]byte("k"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}
