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

package provider_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/memdb"
	"github.com/erigontech/kvcore/kv/provider"
)

func TestGetOnMissReturnsErrNotRegistered(t *testing.T) {
	r := provider.New()
	_, err := r.Get(kv.State)
	require.ErrorIs(t, err, kv.ErrNotRegistered)

	_, ok := r.GetOpt(kv.State)
	require.False(t, ok)
	require.False(t, r.Contains(kv.State))
}

func TestRegisterThenGet(t *testing.T) {
	r := provider.New()
	db := memdb.New(kv.State)
	defer db.Close()

	r.Register(kv.State, db)
	require.True(t, r.Contains(kv.State))

	got, err := r.Get(kv.State)
	require.NoError(t, err)
	require.Same(t, db, got)
}

func TestRegisterReplacesPreviousBinding(t *testing.T) {
	r := provider.New()
	first := memdb.New(kv.State)
	defer first.Close()
	second := memdb.New(kv.State)
	defer second.Close()

	r.Register(kv.State, first)
	r.Register(kv.State, second)

	got, err := r.Get(kv.State)
	require.NoError(t, err)
	require.Same(t, second, got)
}

func TestDistinctPartitionsAreIndependentSlots(t *testing.T) {
	r := provider.New()
	state := memdb.New(kv.State)
	defer state.Close()
	storage := memdb.New(kv.Storage)
	defer storage.Close()

	r.Register(kv.State, state)
	r.Register(kv.Storage, storage)

	_, err := r.Get(kv.Code)
	require.ErrorIs(t, err, kv.ErrNotRegistered)

	got, err := r.Get(kv.Storage)
	require.NoError(t, err)
	require.Same(t, storage, got)
}
