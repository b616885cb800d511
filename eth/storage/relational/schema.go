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

package relational

import (
	"math/big"
	"time"

	"github.com/klaytn/evmexec/eth/primitives"
)

// accountRow is the current-state row for one account; accountHistoryRow
// keeps one row per block in which the account changed, so point-in-time
// reads (ReadAccount with Past(n)) don't need the current table at all.
type accountRow struct {
	Address  []byte `gorm:"primary_key;size:20"`
	Nonce    uint64
	Balance  string `gorm:"size:78"` // decimal-encoded big.Int, portable across postgres/mysql
	Bytecode []byte
}

func (accountRow) TableName() string { return "accounts" }

type accountHistoryRow struct {
	ID          uint64 `gorm:"primary_key"`
	BlockNumber uint64 `gorm:"index"`
	Address     []byte `gorm:"index;size:20"`
	Nonce       uint64
	Balance     string `gorm:"size:78"`
	Bytecode    []byte
}

func (accountHistoryRow) TableName() string { return "account_history" }

func fromAccountChange(change primitives.AccountChange) accountRow {
	return accountRow{
		Address:  change.Address.Bytes(),
		Nonce:    uint64(change.Nonce.Current),
		Balance:  change.Balance.Current.BigInt().String(),
		Bytecode: change.Bytecode.Current,
	}
}

func (r accountRow) history(number primitives.BlockNumber) *accountHistoryRow {
	return &accountHistoryRow{
		BlockNumber: uint64(number),
		Address:     r.Address,
		Nonce:       r.Nonce,
		Balance:     r.Balance,
		Bytecode:    r.Bytecode,
	}
}

func (r accountRow) toAccount() primitives.Account {
	addr := primitives.BytesToAddress(r.Address)
	balance, ok := new(big.Int).SetString(r.Balance, 10)
	if !ok {
		balance = new(big.Int)
	}
	return primitives.Account{Address: addr, Nonce: primitives.Nonce(r.Nonce), Balance: primitives.WeiFromBigInt(balance), Bytecode: r.Bytecode}
}

func (r accountHistoryRow) toAccount(addr primitives.Address) primitives.Account {
	balance, ok := new(big.Int).SetString(r.Balance, 10)
	if !ok {
		balance = new(big.Int)
	}
	return primitives.Account{Address: addr, Nonce: primitives.Nonce(r.Nonce), Balance: primitives.WeiFromBigInt(balance), Bytecode: r.Bytecode}
}

// slotRow / slotHistoryRow mirror accountRow / accountHistoryRow for
// contract storage cells.
type slotRow struct {
	Address   []byte `gorm:"primary_key;size:20"`
	SlotIndex []byte `gorm:"primary_key;size:32;column:slot_index"`
	Value     []byte `gorm:"size:32"`
}

func (slotRow) TableName() string { return "slots" }

type slotHistoryRow struct {
	ID          uint64 `gorm:"primary_key"`
	BlockNumber uint64 `gorm:"index"`
	Address     []byte `gorm:"index;size:20"`
	SlotIndex   []byte `gorm:"size:32;column:slot_index"`
	Value       []byte `gorm:"size:32"`
}

func (slotHistoryRow) TableName() string { return "slot_history" }

func fromSlot(addr primitives.Address, slot primitives.Slot) slotRow {
	return slotRow{Address: addr.Bytes(), SlotIndex: slot.Index[:], Value: slot.Value[:]}
}

func (r slotRow) history(number primitives.BlockNumber) *slotHistoryRow {
	return &slotHistoryRow{BlockNumber: uint64(number), Address: r.Address, SlotIndex: r.SlotIndex, Value: r.Value}
}

func (r slotRow) toSlot() primitives.Slot {
	var s primitives.Slot
	copy(s.Index[:], r.SlotIndex)
	copy(s.Value[:], r.Value)
	return s
}

func (r slotHistoryRow) toSlot() primitives.Slot {
	var s primitives.Slot
	copy(s.Index[:], r.SlotIndex)
	copy(s.Value[:], r.Value)
	return s
}

// blockNumberCounterRow is the single-row reservation counter backing
// IncrementBlockNumber: a row lock on it is what makes the reservation
// itself linearisable, independent of SaveBlock's own head-derived
// check.
type blockNumberCounterRow struct {
	ID   uint `gorm:"primary_key"`
	Next uint64
}

func (blockNumberCounterRow) TableName() string { return "block_number_counters" }

const blockNumberCounterID = 1

// blockRow is the canonical block header row.
type blockRow struct {
	Number           uint64 `gorm:"primary_key"`
	Hash             []byte `gorm:"unique_index;size:32"`
	ParentHash       []byte `gorm:"size:32"`
	Timestamp        time.Time
	TransactionsRoot []byte `gorm:"size:32"`
	ReceiptsRoot     []byte `gorm:"size:32"`
	LogsBloom        []byte `gorm:"size:256"`
	Miner            []byte `gorm:"size:20"`
	GasUsed          uint64
	Difficulty       uint64
	SealNonce        uint64
	MixHash          []byte `gorm:"size:32"`
	UncleHash        []byte `gorm:"size:32"`
}

func (blockRow) TableName() string { return "blocks" }

func fromBlock(b primitives.Block) blockRow {
	h := b.Header
	return blockRow{
		Number:           uint64(h.Number),
		Hash:             h.Hash.Bytes(),
		ParentHash:       h.ParentHash.Bytes(),
		Timestamp:        h.Timestamp,
		TransactionsRoot: h.TransactionsRoot.Bytes(),
		ReceiptsRoot:     h.ReceiptsRoot.Bytes(),
		LogsBloom:        h.LogsBloom[:],
		Miner:            h.Miner.Bytes(),
		GasUsed:          uint64(h.GasUsed),
		Difficulty:       h.Difficulty,
		SealNonce:        h.Nonce,
		MixHash:          h.MixHash.Bytes(),
		UncleHash:        h.UncleHash.Bytes(),
	}
}

func (r blockRow) toBlock() primitives.Block {
	var bloom primitives.Bloom
	copy(bloom[:], r.LogsBloom)
	return primitives.Block{
		Header: primitives.Header{
			Number:           primitives.BlockNumber(r.Number),
			Hash:             primitives.BytesToHash(r.Hash),
			ParentHash:       primitives.BytesToHash(r.ParentHash),
			Timestamp:        r.Timestamp,
			TransactionsRoot: primitives.BytesToHash(r.TransactionsRoot),
			ReceiptsRoot:     primitives.BytesToHash(r.ReceiptsRoot),
			LogsBloom:        bloom,
			Miner:            primitives.BytesToAddress(r.Miner),
			GasUsed:          primitives.Gas(r.GasUsed),
			Difficulty:       r.Difficulty,
			Nonce:            r.SealNonce,
			MixHash:          primitives.BytesToHash(r.MixHash),
			UncleHash:        primitives.BytesToHash(r.UncleHash),
		},
	}
}

// transactionRow is one mined transaction.
type transactionRow struct {
	Hash             []byte `gorm:"primary_key;size:32"`
	BlockNumber      uint64 `gorm:"index"`
	TransactionIndex uint32
	From             []byte `gorm:"size:20"`
	Signer           []byte `gorm:"size:20"`
	To               []byte `gorm:"size:20"` // nil for contract creation
	Nonce            uint64
	Value            string `gorm:"size:78"`
	Gas              uint64
	Input            []byte
	ChainID          uint64
	Result           int
	Output           []byte
	GasUsed          uint64
	BlockTimestamp   time.Time
}

func (transactionRow) TableName() string { return "transactions" }

func fromTransactionMined(number primitives.BlockNumber, index primitives.Index, tx primitives.TransactionMined) transactionRow {
	var to []byte
	if tx.Input.To != nil {
		to = tx.Input.To.Bytes()
	}
	return transactionRow{
		Hash:             tx.Input.Hash.Bytes(),
		BlockNumber:      uint64(number),
		TransactionIndex: uint32(index),
		From:             tx.Input.From.Bytes(),
		Signer:           tx.Input.Signer.Bytes(),
		To:               to,
		Nonce:            uint64(tx.Input.Nonce),
		Value:            tx.Input.Value.BigInt().String(),
		Gas:              uint64(tx.Input.Gas),
		Input:            tx.Input.Input,
		ChainID:          tx.Input.ChainID,
		Result:           int(tx.Execution.Result),
		Output:           tx.Execution.Output,
		GasUsed:          uint64(tx.Execution.GasUsed),
		BlockTimestamp:   tx.Execution.BlockTimestampInUse,
	}
}

func (r transactionRow) toTransactionMined(logs []primitives.LogMined) primitives.TransactionMined {
	var to *primitives.Address
	if len(r.To) == 20 {
		addr := primitives.BytesToAddress(r.To)
		to = &addr
	}
	value, ok := new(big.Int).SetString(r.Value, 10)
	if !ok {
		value = new(big.Int)
	}
	return primitives.TransactionMined{
		Input: primitives.TransactionInput{
			Hash:    primitives.BytesToHash(r.Hash),
			Nonce:   primitives.Nonce(r.Nonce),
			From:    primitives.BytesToAddress(r.From),
			Signer:  primitives.BytesToAddress(r.Signer),
			To:      to,
			Input:   r.Input,
			Gas:     primitives.Gas(r.Gas),
			Value:   primitives.WeiFromBigInt(value),
			ChainID: r.ChainID,
		},
		Execution: primitives.Execution{
			Result:              primitives.ExecutionResult(r.Result),
			Output:              r.Output,
			GasUsed:             primitives.Gas(r.GasUsed),
			BlockTimestampInUse: r.BlockTimestamp,
		},
		Logs:             logs,
		TransactionIndex: primitives.Index(r.TransactionIndex),
	}
}

// logRow is one emitted log, topics flattened into four fixed columns
// (Ethereum logs carry at most 4 topics) for index-friendly filtering.
type logRow struct {
	ID          uint64 `gorm:"primary_key"`
	BlockNumber uint64 `gorm:"index"`
	BlockHash   []byte `gorm:"size:32"`
	TxHash      []byte `gorm:"index;size:32"`
	TxIndex     uint32
	LogIndex    uint32
	Address     []byte `gorm:"index;size:20"`
	Topic0      []byte `gorm:"size:32"`
	Topic1      []byte `gorm:"size:32"`
	Topic2      []byte `gorm:"size:32"`
	Topic3      []byte `gorm:"size:32"`
	Data        []byte
}

func (logRow) TableName() string { return "logs" }

func fromLogMined(logIndex primitives.Index, l primitives.LogMined) logRow {
	row := logRow{
		BlockNumber: uint64(l.BlockNumber),
		BlockHash:   l.BlockHash.Bytes(),
		TxHash:      l.TxHash.Bytes(),
		TxIndex:     uint32(l.TxIndex),
		LogIndex:    uint32(logIndex),
		Address:     l.Address.Bytes(),
		Data:        l.Data,
	}
	topics := [4]*[]byte{&row.Topic0, &row.Topic1, &row.Topic2, &row.Topic3}
	for i, t := range l.Topics {
		if i >= 4 {
			break
		}
		b := t.Bytes()
		*topics[i] = b
	}
	return row
}

func (r logRow) toLogMined() primitives.LogMined {
	var topics []primitives.LogTopic
	for _, raw := range [][]byte{r.Topic0, r.Topic1, r.Topic2, r.Topic3} {
		if len(raw) == 0 {
			continue
		}
		topics = append(topics, primitives.BytesToLogTopic(raw))
	}
	return primitives.LogMined{
		Log: primitives.Log{
			Address: primitives.BytesToAddress(r.Address),
			Topics:  topics,
			Data:    r.Data,
		},
		BlockHash:   primitives.BytesToHash(r.BlockHash),
		BlockNumber: primitives.BlockNumber(r.BlockNumber),
		TxHash:      primitives.BytesToHash(r.TxHash),
		TxIndex:     primitives.Index(r.TxIndex),
		LogIndex:    primitives.Index(r.LogIndex),
	}
}
