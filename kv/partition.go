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

import "fmt"

// PartitionName is the closed enumeration of logical KV partitions. Every
// backend, column bundle and provider entry is addressed by one of these.
// Naming mirrors erigon-lib/kv/tables.go: Go identifiers are CamelCase,
// wire forms are lower camelCase (see wireForm), and the wire forms are a
// compatibility surface that must be emitted bit-exact.
type PartitionName uint8

const (
	State PartitionName = iota
	Storage
	Code
	Blocks
	Headers
	BlockNumbers
	Receipts
	BlockInfos
	BadBlocks
	Bloom
	Metadata
	BlobTransactions
	DiscoveryNodes
	DiscoveryV5Nodes
	Peers

	partitionNameCount
)

// wireForm holds the exact external spelling for each partition. These
// strings are persisted and read by external tooling; they must never be
// derived programmatically (e.g. via strings.Title) or the compatibility
// surface will drift silently.
var wireForm = [partitionNameCount]string{
	State:            "state",
	Storage:          "storage",
	Code:             "code",
	Blocks:           "blocks",
	Headers:          "headers",
	BlockNumbers:     "blockNumbers",
	Receipts:         "receipts",
	BlockInfos:       "blockInfos",
	BadBlocks:        "badBlocks",
	Bloom:            "bloom",
	Metadata:         "metadata",
	BlobTransactions: "blobTransactions",
	DiscoveryNodes:   "discoveryNodes",
	DiscoveryV5Nodes: "discoveryV5Nodes",
	Peers:            "peers",
}

var partitionByWireForm = func() map[string]PartitionName {
	m := make(map[string]PartitionName, partitionNameCount)
	for name, form := range wireForm {
		m[form] = PartitionName(name)
	}
	return m
}()

// String returns the canonical external wire form, e.g. "blockNumbers".
func (p PartitionName) String() string {
	if int(p) >= len(wireForm) {
		return fmt.Sprintf("PartitionName(%d)", uint8(p))
	}
	return wireForm[p]
}

// ParsePartitionName resolves a wire form back to its PartitionName. The
// inverse of String; used by factories and config loaders above this layer.
func ParsePartitionName(wire string) (PartitionName, error) {
	p, ok := partitionByWireForm[wire]
	if !ok {
		return 0, fmt.Errorf("kv: unknown partition name %q", wire)
	}
	return p, nil
}

// AllPartitionNames returns every partition in the closed enumeration, in
// declaration order.
func AllPartitionNames() []PartitionName {
	out := make([]PartitionName, partitionNameCount)
	for i := range out {
		out[i] = PartitionName(i)
	}
	return out
}
