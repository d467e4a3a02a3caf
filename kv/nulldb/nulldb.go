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

// Package nulldb is the sentinel backend: every write is accepted and
// immediately discarded, every read reports absence. Used in modes where
// persistence must be provably absent.
package nulldb

import "github.com/erigontech/kvcore/kv"

// Database discards every write and reports every key absent. Until Close,
// it never errors on Get/Put/Delete/Contains/Flush/Clear/Compact, since
// there is nothing to fail: it is the simplest possible law-abiding
// Database. After Close those calls return kv.ErrClosed.
type Database struct {
	name    kv.PartitionName
	metrics *kv.InstanceMetrics
	closed  bool
}

// New returns a null Database for the given partition.
func New(name kv.PartitionName) *Database {
	return &Database{name: name, metrics: kv.NewInstanceMetrics("nulldb:" + name.String())}
}

func (d *Database) Name() kv.PartitionName { return d.name }

func (d *Database) checkOpen() error {
	if d.closed {
		return kv.ErrClosed
	}
	return nil
}

func (d *Database) Get(_ []byte, _ kv.ReadFlags) (kv.Value, bool, error) {
	if err := d.checkOpen(); err != nil {
		return kv.Value{}, false, err
	}
	d.metrics.RecordRead()
	return kv.Value{}, false, nil
}

func (d *Database) MultiGet(keys [][]byte, flags kv.ReadFlags) ([]kv.OptionalValue, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return kv.DefaultMultiGet(d, keys, flags)
}

func (d *Database) Put(_, _ []byte, _ kv.WriteFlags) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.metrics.RecordWrite()
	return nil
}

func (d *Database) Delete(_ []byte, _ kv.WriteFlags) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	d.metrics.RecordWrite()
	return nil
}

func (d *Database) Contains(_ []byte) (bool, error) {
	if err := d.checkOpen(); err != nil {
		return false, err
	}
	d.metrics.RecordRead()
	return false, nil
}

func (d *Database) Iterator(_ bool) (kv.Iterator, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &emptyIterator{}, nil
}

type emptyIterator struct{}

func (*emptyIterator) Next() (kv.Entry, bool, error) { return kv.Entry{}, false, nil }
func (*emptyIterator) Close() error                  { return nil }

func (d *Database) Snapshot() (kv.Snapshot, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &emptySnapshot{}, nil
}

type emptySnapshot struct{ closed bool }

func (s *emptySnapshot) Get(_ []byte) (kv.Value, bool, error) {
	if s.closed {
		return kv.Value{}, false, kv.ErrClosed
	}
	return kv.Value{}, false, nil
}
func (s *emptySnapshot) Contains(_ []byte) (bool, error) {
	if s.closed {
		return false, kv.ErrClosed
	}
	return false, nil
}
func (s *emptySnapshot) Iterator(_ bool) (kv.Iterator, error) {
	if s.closed {
		return nil, kv.ErrClosed
	}
	return &emptyIterator{}, nil
}
func (s *emptySnapshot) Close() error { s.closed = true; return nil }

func (d *Database) Flush(_ bool) error      { return d.checkOpen() }
func (d *Database) Clear() error            { return d.checkOpen() }
func (d *Database) Compact() error          { return d.checkOpen() }
func (d *Database) GatherMetric() kv.Metric { return d.metrics.Snapshot() }

func (d *Database) Close() error {
	d.closed = true
	return nil
}

func (d *Database) SupportsWriteBatch() bool { return false }
func (d *Database) SupportsMerge() bool      { return false }
func (d *Database) SupportsMultiGet() bool   { return false }
func (d *Database) SupportsSortedView() bool { return false }

func (d *Database) WriteBatch() (kv.WriteBatch, error)                { return nil, kv.ErrNotSupported }
func (d *Database) Merge(_, _ []byte, _ kv.WriteFlags) error          { return kv.ErrNotSupported }
func (d *Database) FirstKey() (kv.Value, bool, error)                 { return kv.Value{}, false, kv.ErrNotSupported }
func (d *Database) LastKey() (kv.Value, bool, error)                  { return kv.Value{}, false, kv.ErrNotSupported }
func (d *Database) GetViewBetween(_, _ []byte) (kv.SortedView, error) { return nil, kv.ErrNotSupported }
