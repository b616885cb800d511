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

package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klaytn/evmexec/eth/evm"
	"github.com/klaytn/evmexec/eth/miner"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
	"github.com/klaytn/evmexec/eth/storage/memory"
)

// transferEvm reads account state straight from storage at the
// input's point in time, mimicking how a real EVM reads through the
// storage trait before proposing changes — so a stale read genuinely
// produces a conflict later, exercising the coordinator's retry loop.
type transferEvm struct {
	storage storage.EthStorage
	delay   time.Duration
}

func (e *transferEvm) Execute(input evm.Input) (*primitives.Execution, error) {
	fromAcc, err := e.storage.ReadAccount(input.From, input.PointInTime)
	if err != nil {
		return nil, err
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	fromChange := primitives.NewAccountChange(fromAcc)
	fromChange.Nonce.Current = fromAcc.Nonce + 1
	fromChange.Balance.Current = fromAcc.Balance.Sub(input.Value)
	changes := []primitives.AccountChange{fromChange}

	if input.To != nil {
		toAcc, err := e.storage.ReadAccount(*input.To, input.PointInTime)
		if err != nil {
			return nil, err
		}
		toChange := primitives.NewAccountChange(toAcc)
		toChange.Balance.Current = toAcc.Balance.Add(input.Value)
		changes = append(changes, toChange)
	}
	return &primitives.Execution{Result: primitives.ResultSuccess, GasUsed: 21000, Changes: changes}, nil
}

func newCoordinator(t *testing.T, delay time.Duration, workers int) (*Coordinator, *memory.Storage) {
	t.Helper()
	s := memory.New()
	evms := make([]evm.Evm, workers)
	for i := range evms {
		evms[i] = &transferEvm{storage: s, delay: delay}
	}
	pool := evm.NewPool(evms)
	m := miner.New(primitives.COINBASE)
	return New(s, pool, m), s
}

var alice = primitives.BytesToAddress([]byte{0xA1})
var bob = primitives.BytesToAddress([]byte{0xB0})

func TestTransactMinesASingleTransactionBlock(t *testing.T) {
	c, s := newCoordinator(t, 0, 2)
	mined, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0)
	require.NoError(t, err)
	require.True(t, mined.Execution.IsSuccess())

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.Len(t, head.Transactions, 1)
	require.EqualValues(t, 0, head.Header.Number)
}

func TestSuccessiveTransactsProduceIncreasingBlockNumbers(t *testing.T) {
	c, _ := newCoordinator(t, 0, 2)
	_, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0)
	require.NoError(t, err)
	_, err = c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 1)
	require.NoError(t, err)

	first, err := c.storage.ReadBlock(primitives.SelectNumber(0))
	require.NoError(t, err)
	second, err := c.storage.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.EqualValues(t, 1, second.Header.Number)
	require.Equal(t, first.Header.Hash, second.Header.ParentHash)
}

func TestTransactRejectsZeroSigner(t *testing.T) {
	c, s := newCoordinator(t, 0, 2)
	_, err := c.Transact(context.Background(), alice, primitives.ZERO, &bob, nil, primitives.NewWei(1), 21000, 0)
	require.Equal(t, primitives.Rejected{Reason: primitives.ZeroSigner}, err)

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.Nil(t, head)
}

func TestConcurrentTransactsFromSameSenderSameNonceRejectsOneWithBadNonce(t *testing.T) {
	c, s := newCoordinator(t, 20*time.Millisecond, 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	successes, rejections := 0, 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.Equal(t, primitives.Rejected{Reason: primitives.BadNonce}, err)
		rejections++
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, rejections)

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.EqualValues(t, 0, head.Header.Number)
}

func TestConcurrentTransactsFromSameSenderRetryInsteadOfDoubleSpending(t *testing.T) {
	c, s := newCoordinator(t, 20*time.Millisecond, 4)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, primitives.Nonce(i))
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	bobAcc, err := s.ReadAccount(bob, primitives.Present)
	require.NoError(t, err)
	require.Equal(t, int64(4), bobAcc.Balance.BigInt().Int64())

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.EqualValues(t, 3, head.Header.Number)
}

func TestTransactExhaustsRetriesUnderPersistentConflict(t *testing.T) {
	s := memory.New()
	conflictingEvm := &alwaysStaleEvm{}
	pool := evm.NewPool([]evm.Evm{conflictingEvm})
	m := miner.New(primitives.COINBASE)
	c := New(s, pool, m).WithRetryPolicy(3, time.Second)

	_, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0)
	require.Equal(t, ErrExhausted, err)
}

// alwaysStaleEvm proposes a change against an Original balance that
// never matches what's committed, forcing every attempt to conflict
// on balance (not the sender's nonce, which short-circuits to
// Rejected(BadNonce) instead of retrying).
type alwaysStaleEvm struct{}

func (e *alwaysStaleEvm) Execute(input evm.Input) (*primitives.Execution, error) {
	change := primitives.AccountChange{
		Address: input.From,
		Balance: primitives.BalanceChange{Original: primitives.NewWei(999), Current: primitives.NewWei(998)},
		Nonce:   primitives.NonceChange{Original: 0, Current: 0},
	}
	return &primitives.Execution{Result: primitives.ResultSuccess, Changes: []primitives.AccountChange{change}}, nil
}

func TestCallDoesNotMutateStorage(t *testing.T) {
	c, s := newCoordinator(t, 0, 2)
	_, err := c.Call(context.Background(), alice, &bob, nil, primitives.Present)
	require.NoError(t, err)

	head, err := s.ReadBlock(primitives.SelectLatest())
	require.NoError(t, err)
	require.Nil(t, head)
}

func TestSubscribeNewHeadsReceivesMinedBlocks(t *testing.T) {
	c, _ := newCoordinator(t, 0, 2)
	sub := c.SubscribeNewHeads()

	_, err := c.Transact(context.Background(), alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0)
	require.NoError(t, err)

	block, err, ok := sub.Recv()
	require.True(t, ok)
	require.NoError(t, err)
	require.EqualValues(t, 0, block.Header.Number)
}

func TestParseRecipientRejectsEnsStyleNames(t *testing.T) {
	_, err := ParseRecipient("vitalik.eth")
	require.Equal(t, ErrUnsupportedRecipient, err)
}

func TestParseRecipientAcceptsHexAddress(t *testing.T) {
	addr, err := ParseRecipient(bob.String())
	require.NoError(t, err)
	require.Equal(t, bob, *addr)
}

func TestParseRecipientEmptyMeansContractCreation(t *testing.T) {
	addr, err := ParseRecipient("")
	require.NoError(t, err)
	require.Nil(t, addr)
}
