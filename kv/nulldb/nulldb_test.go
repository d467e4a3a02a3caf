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

package nulldb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/nulldb"
)

func TestWritesAreAcceptedAndDiscarded(t *testing.T) {
	db := nulldb.New(kv.Receipts)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k"), []byte("v"), 0))
	_, ok, err := db.Get([]byte("k"), 0)
	require.NoError(t, err)
	require.False(t, ok)

	contains, err := db.Contains([]byte("k"))
	require.NoError(t, err)
	require.False(t, contains)
}

func TestIteratorIsAlwaysEmpty(t *testing.T) {
	db := nulldb.New(kv.Receipts)
	defer db.Close()
	require.NoError(t, db.Put([]byte("k"), []byte("v"), 0))

	it, err := db.Iterator(true)
	require.NoError(t, err)
	defer it.Close()

	_, ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOptionalCapabilitiesAreUnsupported(t *testing.T) {
	db := nulldb.New(kv.Receipts)
	defer db.Close()

	require.False(t, db.SupportsWriteBatch())
	require.False(t, db.SupportsMerge())
	require.False(t, db.SupportsMultiGet())
	require.False(t, db.SupportsSortedView())

	_, err := db.WriteBatch()
	require.ErrorIs(t, err, kv.ErrNotSupported)

	err = db.Merge([]byte("k"), []byte("v"), 0)
	require.ErrorIs(t, err, kv.ErrNotSupported)

	_, _, err = db.FirstKey()
	require.ErrorIs(t, err, kv.ErrNotSupported)

	_, err = db.GetViewBetween(nil, nil)
	require.ErrorIs(t, err, kv.ErrNotSupported)
}

func TestSnapshotAlsoReportsAbsence(t *testing.T) {
	db := nulldb.New(kv.Receipts)
	defer db.Close()
	require.NoError(t, db.Put([]byte("k"), []byte("v"), 0))

	snap, err := db.Snapshot()
	require.NoError(t, err)
	defer snap.Close()

	_, ok, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClosedDatabaseRejectsOperations(t *testing.T) {
	db := nulldb.New(kv.Receipts)
	require.NoError(t, db.Close())

	_, _, err := db.Get([]byte("x"), 0)
	require.ErrorIs(t, err, kv.ErrClosed)
}
