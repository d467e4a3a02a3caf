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

import (
	"fmt"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// Metric is a diagnostics snapshot for a single database instance. These
// are not guaranteed monotonic across Clear; see DESIGN.md for the
// resolved "reset on clear" open question.
type Metric struct {
	Size         uint64
	CacheSize    uint64
	IndexSize    uint64
	MemtableSize uint64
	TotalReads   uint64
	TotalWrites  uint64
}

// String renders the snapshot as key=value pairs, the same shape the
// log/v3 structured logger expects for a variadic context argument list.
// Callers pass it to a logger directly, e.g. log.Info("db stats", "db",
// name, "metric", m.String()).
func (m Metric) String() string {
	return fmt.Sprintf(
		`size=%d cache_size=%d index_size=%d memtable_size=%d reads=%d writes=%d`,
		m.Size, m.CacheSize, m.IndexSize, m.MemtableSize, m.TotalReads, m.TotalWrites,
	)
}

// InstanceMetrics is a per-database-instance counter set, registered under
// the instance's name with VictoriaMetrics/metrics, the same library
// erigon-lib/kv declares its DbSize/TxLimit/... counters with.
type InstanceMetrics struct {
	size         atomic.Uint64
	cacheSize    atomic.Uint64
	indexSize    atomic.Uint64
	memtableSize atomic.Uint64
	reads        atomic.Uint64
	writes       atomic.Uint64

	sizeGauge *metrics.Gauge
	readsCtr  *metrics.Counter
	writesCtr *metrics.Counter
}

// NewInstanceMetrics registers a counter set scoped to dbName. Safe to call
// more than once with the same name; VictoriaMetrics/metrics dedupes by
// metric name+labels.
func NewInstanceMetrics(dbName string) *InstanceMetrics {
	m := &InstanceMetrics{}
	m.sizeGauge = metrics.GetOrCreateGauge(fmt.Sprintf(`kv_db_size{db=%q}`, dbName), func() float64 {
		return float64(m.size.Load())
	})
	m.readsCtr = metrics.GetOrCreateCounter(fmt.Sprintf(`kv_db_reads_total{db=%q}`, dbName))
	m.writesCtr = metrics.GetOrCreateCounter(fmt.Sprintf(`kv_db_writes_total{db=%q}`, dbName))
	return m
}

func (m *InstanceMetrics) RecordRead()           { m.reads.Add(1); m.readsCtr.Inc() }
func (m *InstanceMetrics) RecordReads(n uint64)  { m.reads.Add(n); m.readsCtr.Add(int(n)) }
func (m *InstanceMetrics) RecordWrite()          { m.writes.Add(1); m.writesCtr.Inc() }
func (m *InstanceMetrics) RecordWrites(n uint64) { m.writes.Add(n); m.writesCtr.Add(int(n)) }

func (m *InstanceMetrics) SetSize(n uint64)         { m.size.Store(n) }
func (m *InstanceMetrics) SetCacheSize(n uint64)    { m.cacheSize.Store(n) }
func (m *InstanceMetrics) SetIndexSize(n uint64)    { m.indexSize.Store(n) }
func (m *InstanceMetrics) SetMemtableSize(n uint64) { m.memtableSize.Store(n) }

// Reset zeroes every counter. Backends call this from Clear if they resolve
// the open question in favor of resetting (see DESIGN.md).
func (m *InstanceMetrics) Reset() {
	m.size.Store(0)
	m.cacheSize.Store(0)
	m.indexSize.Store(0)
	m.memtableSize.Store(0)
	m.reads.Store(0)
	m.writes.Store(0)
}

// Snapshot returns the current values as a Metric value.
func (m *InstanceMetrics) Snapshot() Metric {
	return Metric{
		Size:         m.size.Load(),
		CacheSize:    m.cacheSize.Load(),
		IndexSize:    m.indexSize.Load(),
		MemtableSize: m.memtableSize.Load(),
		TotalReads:   m.reads.Load(),
		TotalWrites:  m.writes.Load(),
	}
}
