// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package primitives

import "time"

// Bloom is the 256-byte (2048-bit) logs bloom filter of a block.
type Bloom [256]byte

// Header carries the block metadata. Fields not semantically
// meaningful in this single-transaction-per-block model (Difficulty,
// MixHash, the sealing Nonce) are set to the fixed canonical values
// documented in SPEC_FULL.md §4.D.
type Header struct {
	Number           BlockNumber
	Hash             Hash
	ParentHash       Hash
	Timestamp        time.Time
	TransactionsRoot Hash
	ReceiptsRoot     Hash
	LogsBloom        Bloom
	Miner            Address
	GasUsed          Gas

	Difficulty uint64
	Nonce      uint64
	MixHash    Hash
	UncleHash  Hash
}

// Block is a single-transaction block: header plus its one (or zero,
// for genesis-style empty mining, not used by this system) transaction.
type Block struct {
	Header       Header
	Transactions []TransactionMined
}

// BlockSelector identifies which block a read_block call wants.
type BlockSelector struct {
	Latest bool
	Number *BlockNumber
	Hash   *Hash
}

func SelectLatest() BlockSelector                 { return BlockSelector{Latest: true} }
func SelectNumber(n BlockNumber) BlockSelector     { return BlockSelector{Number: &n} }
func SelectHash(h Hash) BlockSelector              { return BlockSelector{Hash: &h} }
