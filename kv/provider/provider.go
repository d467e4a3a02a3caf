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

// Package provider is a simple, allocation-free registry from partition
// name to database handle. It does not own the handles it
// stores; lifetime remains the caller's responsibility, the same
// non-ownership contract erigon-lib's Label-indexed table configs apply to
// the backends registered against them.
package provider

import "github.com/erigontech/kvcore/kv"

// Registry is an enum-indexed array of optional Database handles, giving
// constant-time lookup with no heap allocation per access.
type Registry struct {
	dbs [partitionCount]kv.Database
}

const partitionCount = 256 // kv.PartitionName is a uint8

// New returns an empty Registry.
func New() *Registry { return &Registry{} }

// Register binds name to db. A later Register call for the same name
// replaces the previous binding; the caller remains responsible for
// closing whatever was replaced.
func (r *Registry) Register(name kv.PartitionName, db kv.Database) {
	r.dbs[name] = db
}

// Get returns the Database registered for name, or kv.ErrNotRegistered.
func (r *Registry) Get(name kv.PartitionName) (kv.Database, error) {
	db := r.dbs[name]
	if db == nil {
		return nil, kv.ErrNotRegistered
	}
	return db, nil
}

// GetOpt returns the Database registered for name, or ok=false.
func (r *Registry) GetOpt(name kv.PartitionName) (kv.Database, bool) {
	db := r.dbs[name]
	return db, db != nil
}

// Contains reports whether name has a registered handle.
func (r *Registry) Contains(name kv.PartitionName) bool {
	return r.dbs[name] != nil
}
