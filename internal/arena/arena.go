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

// Package arena provides a small bump allocator used by WriteBatch
// implementations and the in-memory backend to own copies of queued or
// stored keys/values, so borrowed Values returned to callers stay valid
// independent of the caller's own buffers.
package arena

const defaultChunkSize = 32 * 1024

// Arena is a bump allocator. It is not safe for concurrent use; callers at
// this layer are single-threaded.
type Arena struct {
	chunks   [][]byte
	cur      []byte
	chunkCap int
}

// New returns an Arena using chunkCap-sized backing chunks (or a sane
// default if chunkCap <= 0).
func New(chunkCap int) *Arena {
	if chunkCap <= 0 {
		chunkCap = defaultChunkSize
	}
	return &Arena{chunkCap: chunkCap}
}

// Copy allocates len(b) bytes from the arena and copies b into it,
// returning a slice backed by arena memory.
func (a *Arena) Copy(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	if cap(a.cur)-len(a.cur) < len(b) {
		size := a.chunkCap
		if len(b) > size {
			size = len(b)
		}
		chunk := make([]byte, 0, size)
		a.chunks = append(a.chunks, chunk)
		a.cur = chunk
	}
	start := len(a.cur)
	a.cur = a.cur[:start+len(b)]
	copy(a.cur[start:], b)
	out := a.cur[start : start+len(b) : start+len(b)]
	return out
}

// Reset drops all allocated chunks, freeing their memory. The arena remains
// usable for further Copy calls afterward.
func (a *Arena) Reset() {
	a.chunks = nil
	a.cur = nil
}

// Bytes returns the total number of bytes currently held across all chunks
// (capacity, not just used length), for metrics purposes.
func (a *Arena) Bytes() int {
	total := 0
	for _, c := range a.chunks {
		total += cap(c)
	}
	return total
}
