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

package columns

// ReceiptColumn is the column enumeration for receipt storage, split by
// what is kept: the default (tiny) receipt, the originating transaction,
// and the owning block. Modeled on the Label enum in erigon-lib/kv/tables.go.
type ReceiptColumn uint8

const (
	ReceiptDefault ReceiptColumn = iota
	ReceiptTransactions
	ReceiptBlocks
)

func (c ReceiptColumn) String() string {
	switch c {
	case ReceiptDefault:
		return "default"
	case ReceiptTransactions:
		return "transactions"
	case ReceiptBlocks:
		return "blocks"
	default:
		return "unknown receipt column"
	}
}

// AllReceiptColumns returns the closed set of receipt columns, in
// declaration order.
func AllReceiptColumns() []ReceiptColumn {
	return []ReceiptColumn{ReceiptDefault, ReceiptTransactions, ReceiptBlocks}
}

// BlobTxColumn is the column enumeration for EIP-4844 blob-transaction
// lifecycle state: full blobs as received, the light (commitment-only)
// form kept after the blob-retention window, and the processed/included
// marker.
type BlobTxColumn uint8

const (
	BlobTxFull BlobTxColumn = iota
	BlobTxLight
	BlobTxProcessed
)

func (c BlobTxColumn) String() string {
	switch c {
	case BlobTxFull:
		return "full"
	case BlobTxLight:
		return "light"
	case BlobTxProcessed:
		return "processed"
	default:
		return "unknown blob-tx column"
	}
}

// AllBlobTxColumns returns the closed set of blob-transaction columns, in
// declaration order.
func AllBlobTxColumns() []BlobTxColumn {
	return []BlobTxColumn{BlobTxFull, BlobTxLight, BlobTxProcessed}
}
