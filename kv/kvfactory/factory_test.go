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

package kvfactory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/columns"
	"github.com/erigontech/kvcore/kv/kvfactory"
)

func TestDefaultSettings(t *testing.T) {
	s := kvfactory.DefaultSettings(kv.State, "/tmp/state")
	require.Equal(t, kv.State, s.Name)
	require.Equal(t, "/tmp/state", s.Path)
	require.False(t, s.DeleteOnStart)
	require.True(t, s.CanDeleteFolder)
}

func TestCloneWithPreservesFlags(t *testing.T) {
	s := kvfactory.DefaultSettings(kv.State, "/tmp/state")
	s.DeleteOnStart = true
	c := s.CloneWith(kv.Storage, "/tmp/storage")
	require.Equal(t, kv.Storage, c.Name)
	require.Equal(t, "/tmp/storage", c.Path)
	require.True(t, c.DeleteOnStart)
	require.True(t, c.CanDeleteFolder)
}

func TestMemFactoryOpensIndependentHandles(t *testing.T) {
	f := kvfactory.MemFactory{}
	h1, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.NoError(t, err)
	defer h1.Close()

	h2, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.NoError(t, err)
	defer h2.Close()

	require.NoError(t, h1.DB.Put([]byte("k"), []byte("v"), 0))
	_, ok, err := h2.DB.Get([]byte("k"), 0)
	require.NoError(t, err)
	require.False(t, ok, "handles from separate Open calls must not share state")
}

func TestNullFactoryAlwaysFails(t *testing.T) {
	f := kvfactory.NullFactory{}
	_, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.ErrorIs(t, err, kv.ErrNotSupported)
}

func TestNullDBFactoryProducesUsableDiscardingDB(t *testing.T) {
	f := kvfactory.NullDBFactory()
	h, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.DB.Put([]byte("k"), []byte("v"), 0))
	_, ok, err := h.DB.Get([]byte("k"), 0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadOnlyFactoryWrapsWrappedHandle(t *testing.T) {
	f := kvfactory.ReadOnlyFactory{Wrapped: kvfactory.MemFactory{}, WithOverlay: true}
	h, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.DB.Put([]byte("k"), []byte("v"), 0))
	v, ok, err := h.DB.Get([]byte("k"), 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v.Bytes()))
}

func TestReadOnlyFactoryStrictModeRejectsWrites(t *testing.T) {
	f := kvfactory.ReadOnlyFactory{Wrapped: kvfactory.MemFactory{}}
	h, err := f.Open(kvfactory.DefaultSettings(kv.State, ""))
	require.NoError(t, err)
	defer h.Close()

	require.ErrorIs(t, h.DB.Put([]byte("k"), []byte("v"), 0), kv.ErrWriteRejected)
}

func TestDispatchColumnDBOpensOnePerColumn(t *testing.T) {
	base := kvfactory.DefaultSettings(kv.Receipts, "/tmp/receipts")
	bundle, cleanup, err := kvfactory.DispatchColumnDB(
		kvfactory.MemFactory{},
		base,
		columns.AllReceiptColumns(),
		func(s kvfactory.Settings, c columns.ReceiptColumn) kvfactory.Settings {
			return s.CloneWith(s.Name, s.Path+"/"+c.String())
		},
	)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, bundle.GetColumnDB(columns.ReceiptDefault).Put([]byte("k"), []byte("v"), 0))
	_, ok, err := bundle.GetColumnDB(columns.ReceiptTransactions).Get([]byte("k"), 0)
	require.NoError(t, err)
	require.False(t, ok, "each column must get its own independent handle")
}
