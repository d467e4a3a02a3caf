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

package readonly

import (
	"bytes"

	"github.com/erigontech/kvcore/kv"
)

// overlayEntry is one sorted overlay item, possibly a tombstone.
type overlayEntry struct {
	key  []byte
	val  []byte
	tomb bool
}

func (o *overlay) sortedEntries() []overlayEntry {
	out := make([]overlayEntry, 0, o.order.Len())
	o.order.Ascend(func(it overlayItem) bool {
		_, isTomb := o.tomb[it.key]
		var val []byte
		if !isTomb {
			val = o.values[it.key]
		}
		out = append(out, overlayEntry{key: []byte(it.key), val: val, tomb: isTomb})
		return true
	})
	return out
}

func (d *Database) Iterator(ordered bool) (kv.Iterator, error) {
	if d.overlay == nil {
		return d.base.Iterator(ordered)
	}
	if ordered {
		return d.orderedOverlayIterator()
	}
	return d.unorderedOverlayIterator()
}

// orderedOverlayIterator performs an O(n+m) merge-sort:
// one-entry look-ahead on each side, overlay wins ties, tombstoned overlay
// keys suppress the corresponding base entry without being emitted.
type mergeIterator struct {
	overlayEntries []overlayEntry
	oIdx           int
	base           kv.Iterator
	baseCur        *kv.Entry
	baseExhausted  bool
}

func (d *Database) orderedOverlayIterator() (kv.Iterator, error) {
	base, err := d.base.Iterator(true)
	if err != nil {
		return nil, err
	}
	return &mergeIterator{overlayEntries: d.overlay.sortedEntries(), base: base}, nil
}

func (m *mergeIterator) fillBase() error {
	if m.baseCur != nil || m.baseExhausted {
		return nil
	}
	e, ok, err := m.base.Next()
	if err != nil {
		return err
	}
	if !ok {
		m.baseExhausted = true
		return nil
	}
	m.baseCur = &e
	return nil
}

func (m *mergeIterator) Next() (kv.Entry, bool, error) {
	for {
		if err := m.fillBase(); err != nil {
			return kv.Entry{}, false, err
		}
		var oCur *overlayEntry
		if m.oIdx < len(m.overlayEntries) {
			oCur = &m.overlayEntries[m.oIdx]
		}

		switch {
		case oCur == nil && m.baseCur == nil:
			return kv.Entry{}, false, nil

		case oCur == nil:
			e := *m.baseCur
			m.baseCur = nil
			return e, true, nil

		case m.baseCur == nil:
			m.oIdx++
			if oCur.tomb {
				continue
			}
			return kv.Entry{
				Key:   kv.StaticValue(oCur.key),
				Value: kv.StaticValue(oCur.val),
			}, true, nil

		default:
			cmp := bytes.Compare(oCur.key, m.baseCur.Key.Bytes())
			switch {
			case cmp < 0:
				m.oIdx++
				if oCur.tomb {
					continue
				}
				return kv.Entry{Key: kv.StaticValue(oCur.key), Value: kv.StaticValue(oCur.val)}, true, nil
			case cmp > 0:
				e := *m.baseCur
				m.baseCur = nil
				return e, true, nil
			default: // tie: overlay wins, base entry released
				m.baseCur.Release()
				m.baseCur = nil
				m.oIdx++
				if oCur.tomb {
					continue
				}
				return kv.Entry{Key: kv.StaticValue(oCur.key), Value: kv.StaticValue(oCur.val)}, true, nil
			}
		}
	}
}

func (m *mergeIterator) Close() error {
	if m.baseCur != nil {
		m.baseCur.Release()
		m.baseCur = nil
	}
	return m.base.Close()
}

// unorderedIterator is a two-phase stream: overlay entries (skipping
// tombstones) first while recording their keys in a seen-set, then base
// entries skipping any key already seen (present or tombstoned).
type unorderedIterator struct {
	pending []kv.Entry
	pos     int
	base    kv.Iterator
	seen    map[string]struct{}
	phase2  bool
}

func (d *Database) unorderedOverlayIterator() (kv.Iterator, error) {
	base, err := d.base.Iterator(false)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(d.overlay.values)+len(d.overlay.tomb))
	pending := make([]kv.Entry, 0, len(d.overlay.values))
	for k := range d.overlay.values {
		seen[k] = struct{}{}
		pending = append(pending, kv.Entry{
			Key:   kv.StaticValue([]byte(k)),
			Value: kv.StaticValue(d.overlay.values[k]),
		})
	}
	for k := range d.overlay.tomb {
		seen[k] = struct{}{}
	}
	return &unorderedIterator{pending: pending, base: base, seen: seen}, nil
}

func (u *unorderedIterator) Next() (kv.Entry, bool, error) {
	if !u.phase2 {
		if u.pos < len(u.pending) {
			e := u.pending[u.pos]
			u.pos++
			return e, true, nil
		}
		u.phase2 = true
	}
	for {
		e, ok, err := u.base.Next()
		if err != nil || !ok {
			return kv.Entry{}, ok, err
		}
		if _, dup := u.seen[string(e.Key.Bytes())]; dup {
			e.Release()
			continue
		}
		return e, true, nil
	}
}

func (u *unorderedIterator) Close() error {
	u.pending = nil
	return u.base.Close()
}

// --- snapshot composition ---

// snapshot composes a wrapped snapshot with an overlay snapshot taken
// atomically at the same call; reads check the overlay snapshot first,
// then the wrapped snapshot.
type snapshot struct {
	base    kv.Snapshot
	overlay *overlaySnapshot // nil in strict mode
}

func (d *Database) Snapshot() (kv.Snapshot, error) {
	base, err := d.base.Snapshot()
	if err != nil {
		return nil, err
	}
	var ov *overlaySnapshot
	if d.overlay != nil {
		ov = d.overlay.snapshot()
	}
	return &snapshot{base: base, overlay: ov}, nil
}

func (s *snapshot) Get(key []byte) (kv.Value, bool, error) {
	if s.overlay != nil {
		if v, ok, isTomb := s.overlay.get(key); isTomb {
			return kv.Value{}, false, nil
		} else if ok {
			return v, true, nil
		}
	}
	return s.base.Get(key)
}

func (s *snapshot) Contains(key []byte) (bool, error) {
	if s.overlay != nil {
		if _, ok, isTomb := s.overlay.get(key); isTomb {
			return false, nil
		} else if ok {
			return true, nil
		}
	}
	return s.base.Contains(key)
}

func (s *snapshot) Iterator(ordered bool) (kv.Iterator, error) {
	return s.base.Iterator(ordered)
}

func (s *snapshot) Close() error {
	return s.base.Close()
}
