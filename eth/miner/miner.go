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

// Package miner assembles a single executed transaction into a Block,
// the way the teacher's work.Agent turns a sealing Task into a Result
// — except every block here carries exactly one transaction, so there
// is no transaction-selection policy to implement.
package miner

import (
	"time"

	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/log"
)

var logger = log.NewModuleLogger(log.Miner)

// Miner turns one executed transaction into the next block.
type Miner struct {
	coinbase primitives.Address
}

func New(coinbase primitives.Address) *Miner {
	return &Miner{coinbase: coinbase}
}

// Mine assembles number's block on top of parentHash out of the one
// already-executed input/execution pair. previousTimestamp is the
// parent block's header timestamp, or the zero time for block 0 (which
// has no parent to stay strictly after). The caller is responsible for
// holding whatever lock makes (number, parentHash) exclusive across
// concurrent Mine calls — Mine itself does no locking.
func (m *Miner) Mine(number primitives.BlockNumber, parentHash primitives.Hash, previousTimestamp time.Time, input primitives.TransactionInput, execution primitives.Execution) primitives.Block {
	logs := make([]primitives.LogMined, 0, len(execution.Logs))
	for i, l := range execution.Logs {
		logs = append(logs, primitives.LogMined{
			Log:      l,
			TxHash:   input.Hash,
			TxIndex:  0,
			LogIndex: primitives.Index(i),
		})
	}

	tx := primitives.TransactionMined{
		Input:            input,
		Execution:        execution,
		Logs:             logs,
		TransactionIndex: 0,
	}

	timestamp := execution.BlockTimestampInUse
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	timestamp = nextTimestamp(timestamp, previousTimestamp)

	header := primitives.Header{
		Number:           number,
		ParentHash:       parentHash,
		Timestamp:        timestamp,
		TransactionsRoot: transactionsRoot(tx),
		ReceiptsRoot:     receiptsRoot(tx),
		LogsBloom:        logsBloom(logs),
		Miner:            m.coinbase,
		GasUsed:          execution.GasUsed,

		// Canonical fixed values: this system has no PoW/PoA sealing
		// step, so there is nothing meaningful to put here, per
		// SPEC_FULL.md §4.D.
		Difficulty: 0,
		Nonce:      0,
		MixHash:    primitives.ZeroHash,
		UncleHash:  emptyUncleHash,
	}
	header.Hash = headerHash(header)
	for i := range logs {
		logs[i].BlockHash = header.Hash
		logs[i].BlockNumber = number
	}
	tx.Logs = logs

	logger.Debug("mined block", "number", number, "txHash", input.Hash, "gasUsed", execution.GasUsed)
	return primitives.Block{Header: header, Transactions: []primitives.TransactionMined{tx}}
}

// nextTimestamp enforces SPEC_FULL.md §4.D step 2:
// timestamp = max(now_seconds, previous_block.timestamp + 1). observed
// is whichever candidate the caller already picked (the EVM's reported
// block time, or the wall clock), truncated to second resolution;
// previous is the zero time for block 0, which has nothing to stay
// after. Without this floor, two blocks mined within the same clock
// tick — or a wall clock that steps backward — would violate the
// monotonic-timestamp invariant (SPEC_FULL.md §8.2).
func nextTimestamp(observed, previous time.Time) time.Time {
	observed = observed.Truncate(time.Second)
	if previous.IsZero() {
		return observed
	}
	floor := previous.Add(time.Second)
	if observed.Before(floor) {
		return floor
	}
	return observed
}

// emptyUncleHash is the canonical Keccak256 of an RLP-encoded empty
// list, the value go-ethereum nodes use for UncleHash whenever a block
// has no uncles — every block here has none.
var emptyUncleHash = primitives.Keccak256Hash([]byte{0xc0})

func transactionsRoot(tx primitives.TransactionMined) primitives.Hash {
	return primitives.Keccak256Hash(tx.Input.Hash.Bytes(), tx.Input.Input)
}

func receiptsRoot(tx primitives.TransactionMined) primitives.Hash {
	return primitives.Keccak256Hash(tx.Input.Hash.Bytes(), tx.Execution.Output, []byte{byte(tx.Execution.Result)})
}

func headerHash(h primitives.Header) primitives.Hash {
	buf := h.ParentHash.Bytes()
	buf = append(buf, h.TransactionsRoot.Bytes()...)
	buf = append(buf, h.ReceiptsRoot.Bytes()...)
	buf = append(buf, h.Miner.Bytes()...)
	buf = append(buf, uint64ToBytes(uint64(h.Number))...)
	buf = append(buf, uint64ToBytes(uint64(h.Timestamp.UnixNano()))...)
	return primitives.Keccak256Hash(buf)
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
