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

// ReleaseFunc is invoked exactly once when a caller is done with a borrowed
// Value's bytes. A nil ReleaseFunc means the bytes are inert (static or
// arena-owned for the lifetime of the owning backend) and no action is
// required. Grounded on the (value, io.Closer, error) convention Pebble
// uses for its Get/Snapshot.Get results.
type ReleaseFunc func()

// Value is a single-owner, borrowed byte slice. The reader that obtained it
// owns it and must call Release exactly once. Values are not safe to share
// across goroutines; clone the bytes first if the data must outlive Release.
type Value struct {
	b       []byte
	release ReleaseFunc
}

// NewValue wraps b with an optional release hook.
func NewValue(b []byte, release ReleaseFunc) Value {
	return Value{b: b, release: release}
}

// StaticValue wraps b with no release hook, for arena- or literal-owned bytes.
func StaticValue(b []byte) Value { return Value{b: b} }

// Bytes returns the borrowed slice. The slice is only valid until Release is
// called, the owning backend is torn down, or the backend's documented
// mutation-invalidation point is reached.
func (v Value) Bytes() []byte { return v.b }

// Len returns len(v.Bytes()).
func (v Value) Len() int { return len(v.b) }

// Release invokes the release hook exactly once. Calling Release on a
// Value with no hook is a no-op. Calling it more than once is a caller bug;
// Release does not guard against double-release.
func (v Value) Release() {
	if v.release != nil {
		v.release()
	}
}

// Clone copies the borrowed bytes into a new, release-free Value, safe to
// retain past the original's lifetime.
func (v Value) Clone() Value {
	if v.b == nil {
		return Value{}
	}
	cp := make([]byte, len(v.b))
	copy(cp, v.b)
	return Value{b: cp}
}

// Entry is a key/value pair of borrowed values, as yielded by iterators and
// sorted views.
type Entry struct {
	Key   Value
	Value Value
}

// Release releases both the key and value handles.
func (e Entry) Release() {
	e.Key.Release()
	e.Value.Release()
}
