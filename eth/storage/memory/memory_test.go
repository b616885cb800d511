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

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
)

var alice = primitives.BytesToAddress([]byte{0x01})

func transferBlock(number primitives.BlockNumber, parent primitives.Hash, to primitives.Address, newBalance int64) primitives.Block {
	change := primitives.NewAccountChange(primitives.DefaultAccount(to))
	change.Balance.Current = primitives.NewWei(newBalance)
	tx := primitives.TransactionMined{
		Input: primitives.TransactionInput{Hash: primitives.Keccak256Hash([]byte{byte(number)})},
		Execution: primitives.Execution{
			Result:  primitives.ResultSuccess,
			Changes: []primitives.AccountChange{change},
		},
	}
	return primitives.Block{
		Header: primitives.Header{
			Number:     number,
			Hash:       primitives.Keccak256Hash([]byte("block"), []byte{byte(number)}),
			ParentHash: parent,
		},
		Transactions: []primitives.TransactionMined{tx},
	}
}

func TestReadAccountDefaultsToZeroValue(t *testing.T) {
	s := New()
	acc, err := s.ReadAccount(alice, primitives.Present)
	require.NoError(t, err)
	require.True(t, acc.Balance.IsZero())
	require.EqualValues(t, 0, acc.Nonce)
}

func TestSaveBlockRejectsWrongNumber(t *testing.T) {
	s := New()
	block := transferBlock(1, primitives.ZeroHash, alice, 10)
	err := s.SaveBlock(block)
	require.Equal(t, storage.ErrNumberMismatch, err)
}

func TestSaveBlockRejectsWrongParent(t *testing.T) {
	s := New()
	block := transferBlock(0, primitives.Keccak256Hash([]byte("wrong")), alice, 10)
	err := s.SaveBlock(block)
	require.Equal(t, storage.ErrParentMismatch, err)
}

func TestSaveBlockThenReadPresentState(t *testing.T) {
	s := New()
	block := transferBlock(0, primitives.ZeroHash, alice, 10)
	require.NoError(t, s.SaveBlock(block))

	acc, err := s.ReadAccount(alice, primitives.Present)
	require.NoError(t, err)
	require.Equal(t, int64(10), acc.Balance.BigInt().Int64())

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.Equal(t, block.Header.Hash, head.Header.Hash)
}

func TestIncrementBlockNumberReservesDistinctNumbers(t *testing.T) {
	s := New()

	n0, err := s.IncrementBlockNumber()
	require.NoError(t, err)
	n1, err := s.IncrementBlockNumber()
	require.NoError(t, err)

	require.Equal(t, primitives.BlockNumber(0), n0)
	require.Equal(t, primitives.BlockNumber(1), n1)
}

func TestIncrementBlockNumberDoesNotWedgeSaveBlockAfterAbandonedReservation(t *testing.T) {
	s := New()

	_, err := s.IncrementBlockNumber() // reserved but never saved
	require.NoError(t, err)

	require.NoError(t, s.SaveBlock(transferBlock(0, primitives.ZeroHash, alice, 10)))
}

func TestPointInTimeReadsSeePriorBlockOnly(t *testing.T) {
	s := New()
	b0 := transferBlock(0, primitives.ZeroHash, alice, 10)
	require.NoError(t, s.SaveBlock(b0))
	b1 := transferBlock(1, b0.Header.Hash, alice, 20)
	require.NoError(t, s.SaveBlock(b1))

	past, err := s.ReadAccount(alice, primitives.AtBlock(0))
	require.NoError(t, err)
	require.Equal(t, int64(10), past.Balance.BigInt().Int64())

	present, err := s.ReadAccount(alice, primitives.Present)
	require.NoError(t, err)
	require.Equal(t, int64(20), present.Balance.BigInt().Int64())
}

func TestCheckConflictsDetectsDivergedBalance(t *testing.T) {
	s := New()
	require.NoError(t, s.SaveBlock(transferBlock(0, primitives.ZeroHash, alice, 10)))

	staleChange := primitives.NewAccountChange(primitives.DefaultAccount(alice)) // Original balance 0, but committed is 10
	conflict, err := s.CheckConflicts(primitives.Execution{Changes: []primitives.AccountChange{staleChange}})
	require.NoError(t, err)
	require.NotEmpty(t, conflict)
	require.Equal(t, primitives.ConflictBalance, conflict[0].Kind)
}

func TestCheckConflictsCleanWhenMatchingCommitted(t *testing.T) {
	s := New()
	require.NoError(t, s.SaveBlock(transferBlock(0, primitives.ZeroHash, alice, 10)))

	committed, err := s.ReadAccount(alice, primitives.Present)
	require.NoError(t, err)
	fresh := primitives.NewAccountChange(committed)
	conflict, err := s.CheckConflicts(primitives.Execution{Changes: []primitives.AccountChange{fresh}})
	require.NoError(t, err)
	require.Empty(t, conflict)
}

func TestIgnoredAddressesNeverPersist(t *testing.T) {
	s := New()
	zero := primitives.NewAccountChange(primitives.DefaultAccount(primitives.ZERO))
	zero.Balance.Current = primitives.NewWei(999)
	block := primitives.Block{
		Header: primitives.Header{Number: 0, Hash: primitives.Keccak256Hash([]byte("b0"))},
		Transactions: []primitives.TransactionMined{{
			Execution: primitives.Execution{Result: primitives.ResultSuccess, Changes: []primitives.AccountChange{zero}},
		}},
	}
	require.NoError(t, s.SaveBlock(block))

	acc, err := s.ReadAccount(primitives.ZERO, primitives.Present)
	require.NoError(t, err)
	require.True(t, acc.Balance.IsZero())
}
