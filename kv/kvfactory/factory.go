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

// Package kvfactory implements factories that produce owned
// database/column handles with cleanup closures, plus reference in-memory,
// null and read-only factories.
package kvfactory

import (
	"path/filepath"

	"github.com/erigontech/kvcore/kv"
	"github.com/erigontech/kvcore/kv/columns"
	"github.com/erigontech/kvcore/kv/memdb"
	"github.com/erigontech/kvcore/kv/nulldb"
	"github.com/erigontech/kvcore/kv/readonly"
)

// Settings describes how a Factory should open (or simulate opening) a
// partition. Path is caller-owned; Clone and CloneWith make value copies.
type Settings struct {
	Name            kv.PartitionName
	Path            string
	DeleteOnStart   bool
	CanDeleteFolder bool
}

// DefaultSettings returns Settings with the documented defaults:
// DeleteOnStart=false, CanDeleteFolder=true.
func DefaultSettings(name kv.PartitionName, path string) Settings {
	return Settings{Name: name, Path: path, CanDeleteFolder: true}
}

// Clone returns a value copy of s.
func (s Settings) Clone() Settings { return s }

// CloneWith returns a copy of s with Name and Path replaced, preserving
// the delete-on-start/can-delete-folder flags.
func (s Settings) CloneWith(name kv.PartitionName, path string) Settings {
	c := s
	c.Name = name
	c.Path = path
	return c
}

// ReleaseFunc tears down a factory-produced handle. A nil ReleaseFunc means
// the handle is non-owning.
type ReleaseFunc func()

// OwnedHandle pairs a Database with the cleanup that must run on teardown.
type OwnedHandle struct {
	DB      kv.Database
	release ReleaseFunc
}

// Close invokes the release function exactly once, if any.
func (h OwnedHandle) Close() error {
	if h.release != nil {
		h.release()
	}
	return h.DB.Close()
}

// Factory produces owned Database handles.
type Factory interface {
	// Open returns an owned handle for settings.Name, created (or
	// simulated) at settings.Path.
	Open(settings Settings) (OwnedHandle, error)

	// GetFullDBPath derives the resolved filesystem path for settings.
	GetFullDBPath(settings Settings) string

	// Deinit bulk-cleans up any factory-owned state (e.g. allocator
	// pools shared across handles this factory produced).
	Deinit()
}

// DispatchColumnDB is the generic "comptime column-database constructor":
// it opens one Database per column by delegating to f, producing a
// columns.Bundle. Works with any Factory, so column bundles aren't tied to
// one concrete factory implementation.
func DispatchColumnDB[C columns.Column](f Factory, base Settings, all []C, pathFor func(Settings, C) Settings) (*columns.Bundle[C], func(), error) {
	var handles []OwnedHandle
	cleanup := func() {
		for i := len(handles) - 1; i >= 0; i-- {
			_ = handles[i].Close()
		}
	}
	bundle, err := columns.NewBundle(all, func(c C) (kv.Database, error) {
		h, err := f.Open(pathFor(base, c))
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
		return h.DB, nil
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return bundle, cleanup, nil
}

// --- In-memory factory ---

// MemFactory allocates a fresh memdb.Database per Open call. Nothing is
// shared across handles, so Deinit is a no-op.
type MemFactory struct{}

func (MemFactory) Open(settings Settings) (OwnedHandle, error) {
	db := memdb.New(settings.Name)
	return OwnedHandle{DB: db, release: func() {}}, nil
}

func (MemFactory) GetFullDBPath(settings Settings) string {
	return filepath.Join(settings.Path, settings.Name.String())
}

func (MemFactory) Deinit() {}

// --- Null factory ---

// NullFactory fails every Open call with kv.ErrNotSupported, a sentinel
// for modes where persistence must be provably absent.
type NullFactory struct{}

func (NullFactory) Open(settings Settings) (OwnedHandle, error) {
	return OwnedHandle{}, kv.ErrNotSupported
}

func (NullFactory) GetFullDBPath(settings Settings) string {
	return filepath.Join(settings.Path, settings.Name.String())
}

func (NullFactory) Deinit() {}

// nullDBFactory is an internal helper for tests/callers that genuinely
// want a usable null Database rather than an always-failing factory; it is
// distinct from NullFactory, which models a "null factory" sentinel.
type nullDBFactory struct{}

func (nullDBFactory) Open(settings Settings) (OwnedHandle, error) {
	return OwnedHandle{DB: nulldb.New(settings.Name), release: func() {}}, nil
}
func (nullDBFactory) GetFullDBPath(settings Settings) string { return settings.Path }
func (nullDBFactory) Deinit()                                {}

// NullDBFactory returns a Factory producing nulldb.Database handles that
// accept and discard every write, as opposed to NullFactory which refuses
// to open anything at all.
func NullDBFactory() Factory { return nullDBFactory{} }

// --- Read-only factory ---

// ReadOnlyFactory wraps another Factory; every handle it produces is a
// readonly.Database decorator over the wrapped factory's handle.
type ReadOnlyFactory struct {
	Wrapped     Factory
	WithOverlay bool
}

func (f ReadOnlyFactory) Open(settings Settings) (OwnedHandle, error) {
	h, err := f.Wrapped.Open(settings)
	if err != nil {
		return OwnedHandle{}, err
	}
	var ro kv.Database
	if f.WithOverlay {
		ro = readonly.NewWithOverlay(h.DB)
	} else {
		ro = readonly.New(h.DB)
	}
	return OwnedHandle{DB: ro, release: h.release}, nil
}

func (f ReadOnlyFactory) GetFullDBPath(settings Settings) string {
	return f.Wrapped.GetFullDBPath(settings)
}

func (f ReadOnlyFactory) Deinit() { f.Wrapped.Deinit() }
