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

package miner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klaytn/evmexec/eth/primitives"
)

func TestMineProducesSingleTransactionBlock(t *testing.T) {
	m := New(primitives.COINBASE)
	input := primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte("tx"))}
	execution := primitives.Execution{Result: primitives.ResultSuccess, GasUsed: 21000}

	block := m.Mine(1, primitives.ZeroHash, time.Time{}, input, execution)

	require.Len(t, block.Transactions, 1)
	require.EqualValues(t, 0, block.Transactions[0].TransactionIndex)
	require.Equal(t, primitives.BlockNumber(1), block.Header.Number)
	require.Equal(t, primitives.ZeroHash, block.Header.ParentHash)
	require.False(t, block.Header.Hash.IsZero())
	require.Equal(t, primitives.COINBASE, block.Header.Miner)
}

func TestMineIsDeterministicForSameInput(t *testing.T) {
	m := New(primitives.COINBASE)
	input := primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte("tx"))}
	execution := primitives.Execution{Result: primitives.ResultSuccess}

	b1 := m.Mine(1, primitives.ZeroHash, time.Time{}, input, execution)
	b2 := m.Mine(1, primitives.ZeroHash, time.Time{}, input, execution)

	require.Equal(t, b1.Header.TransactionsRoot, b2.Header.TransactionsRoot)
}

func TestMineStampsLogsWithBlockAndTxPosition(t *testing.T) {
	m := New(primitives.COINBASE)
	input := primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte("tx"))}
	execution := primitives.Execution{
		Result: primitives.ResultSuccess,
		Logs: []primitives.Log{
			{Address: primitives.BytesToAddress([]byte{1}), Topics: []primitives.LogTopic{primitives.BytesToLogTopic([]byte{2})}},
		},
	}

	block := m.Mine(3, primitives.ZeroHash, time.Time{}, input, execution)

	require.Len(t, block.Transactions[0].Logs, 1)
	mined := block.Transactions[0].Logs[0]
	require.Equal(t, primitives.BlockNumber(3), mined.BlockNumber)
	require.Equal(t, block.Header.Hash, mined.BlockHash)
	require.Equal(t, input.Hash, mined.TxHash)
	require.EqualValues(t, 0, mined.LogIndex)
}

func TestMineTimestampAdvancesPastParentEvenWhenClockDoesNot(t *testing.T) {
	m := New(primitives.COINBASE)
	input := primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte("tx"))}
	execution := primitives.Execution{Result: primitives.ResultSuccess}

	parentTimestamp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	block := m.Mine(2, primitives.ZeroHash, parentTimestamp, input, execution)

	require.True(t, block.Header.Timestamp.After(parentTimestamp))
	require.Equal(t, parentTimestamp.Add(time.Second), block.Header.Timestamp)
}

func TestMineTimestampUsesWallClockWhenParentIsOlder(t *testing.T) {
	m := New(primitives.COINBASE)
	input := primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte("tx"))}
	execution := primitives.Execution{Result: primitives.ResultSuccess}

	parentTimestamp := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	block := m.Mine(2, primitives.ZeroHash, parentTimestamp, input, execution)

	require.True(t, block.Header.Timestamp.After(parentTimestamp))
	require.WithinDuration(t, time.Now().UTC(), block.Header.Timestamp, 5*time.Second)
}

func TestLogsBloomSetsBitsForEveryAddressAndTopic(t *testing.T) {
	addr := primitives.BytesToAddress([]byte{9})
	topic := primitives.BytesToLogTopic([]byte{8})
	logs := []primitives.LogMined{{Log: primitives.Log{Address: addr, Topics: []primitives.LogTopic{topic}}}}

	bloom := logsBloom(logs)

	var empty primitives.Bloom
	require.NotEqual(t, empty, bloom)
}
