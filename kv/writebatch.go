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

package kv

import "github.com/erigontech/kvcore/internal/arena"

// NewWriteBatch returns db's own atomic batch if it advertises
// SupportsWriteBatch, otherwise a SequentialWriteBatch wrapping db. Callers
// that just want "a batch for this target" without caring which dispatch
// happened should use this instead of calling db.WriteBatch() directly.
func NewWriteBatch(db Database) (WriteBatch, error) {
	if db.SupportsWriteBatch() {
		return db.WriteBatch()
	}
	return NewSequentialWriteBatch(db), nil
}

// SequentialWriteBatch is the documented fallback for targets with no
// atomic batch primitive: operations are applied one at a time on Commit.
// On the first failing operation, the sweep stops and the entire original
// queue (including already-applied operations) is retained for inspection
// or retry on a later Commit call; already-applied operations are not
// rolled back on the target.
type SequentialWriteBatch struct {
	db  Database
	a   *arena.Arena
	ops []Op
}

// NewSequentialWriteBatch builds a sequential-fallback batch targeting db.
func NewSequentialWriteBatch(db Database) *SequentialWriteBatch {
	return &SequentialWriteBatch{db: db, a: arena.New(0)}
}

func (b *SequentialWriteBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, Op{Kind: OpPut, Key: b.a.Copy(key), Value: b.a.Copy(value)})
	return nil
}

func (b *SequentialWriteBatch) Delete(key []byte) error {
	b.ops = append(b.ops, Op{Kind: OpDelete, Key: b.a.Copy(key)})
	return nil
}

func (b *SequentialWriteBatch) Merge(key, value []byte, flags WriteFlags) error {
	b.ops = append(b.ops, Op{Kind: OpMerge, Key: b.a.Copy(key), Value: b.a.Copy(value), Flags: flags})
	return nil
}

func (b *SequentialWriteBatch) Pending() int { return len(b.ops) }

func (b *SequentialWriteBatch) Clear() {
	b.ops = nil
	b.a.Reset()
}

// Commit applies queued ops in order. On the first error, it stops and
// retains the full original queue, including ops already applied to the
// target, for a later retry; applied ops are not rolled back on the
// target itself.
func (b *SequentialWriteBatch) Commit() error {
	for _, op := range b.ops {
		var err error
		switch op.Kind {
		case OpPut:
			err = b.db.Put(op.Key, op.Value, op.Flags)
		case OpDelete:
			err = b.db.Delete(op.Key, op.Flags)
		case OpMerge:
			err = b.db.Merge(op.Key, op.Value, op.Flags)
		}
		if err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

func (b *SequentialWriteBatch) Close() error {
	b.ops = nil
	b.a.Reset()
	return nil
}

// DefaultMultiGet fills result[i] with db.Get(keys[i]) for every i, in
// order. Used by backends with no native batched-read primitive.
func DefaultMultiGet(db Database, keys [][]byte, flags ReadFlags) ([]OptionalValue, error) {
	out := make([]OptionalValue, len(keys))
	for i, k := range keys {
		v, ok, err := db.Get(k, flags)
		if err != nil {
			return nil, err
		}
		out[i] = OptionalValue{Value: v, Ok: ok}
	}
	return out, nil
}
