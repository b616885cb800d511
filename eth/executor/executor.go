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

// Package executor implements the optimistic transact/call state
// machine: submit to the EVM pool, check for conflicts against
// storage, and — on a clean check — mine and save under a single
// mutex, retrying on conflict.
package executor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/klaytn/evmexec/eth/evm"
	"github.com/klaytn/evmexec/eth/filters"
	"github.com/klaytn/evmexec/eth/miner"
	"github.com/klaytn/evmexec/eth/notify"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
	"github.com/klaytn/evmexec/log"
)

// DefaultMaxAttempts and DefaultRetryDeadline resolve spec.md §9 Open
// Question 1: transact retries until whichever bound hits first.
const (
	DefaultMaxAttempts   = 5
	DefaultRetryDeadline = 2 * time.Second
)

var logger = log.NewModuleLogger(log.Executor)

var (
	transactCounter  = metrics.NewRegisteredCounter("executor/transact", nil)
	callCounter      = metrics.NewRegisteredCounter("executor/call", nil)
	retryCounter     = metrics.NewRegisteredCounter("executor/retry", nil)
	exhaustedCounter = metrics.NewRegisteredCounter("executor/exhausted", nil)
)

// Coordinator is the single entry point transact/call requests and
// newHeads/logs subscriptions go through.
type Coordinator struct {
	storage storage.EthStorage
	pool    *evm.Pool
	miner   *miner.Miner

	minerMu sync.Mutex // held only around read-head + mine + save

	blocks *notify.BlockFeed
	logs   *notify.LogFeed

	maxAttempts   int
	retryDeadline time.Duration
}

// New builds a Coordinator with the default retry policy.
func New(s storage.EthStorage, pool *evm.Pool, m *miner.Miner) *Coordinator {
	return &Coordinator{
		storage:       s,
		pool:          pool,
		miner:         m,
		blocks:        notify.NewBlockFeed(),
		logs:          notify.NewLogFeed(),
		maxAttempts:   DefaultMaxAttempts,
		retryDeadline: DefaultRetryDeadline,
	}
}

// WithRetryPolicy overrides the default bounded-attempts/deadline pair.
func (c *Coordinator) WithRetryPolicy(maxAttempts int, deadline time.Duration) *Coordinator {
	c.maxAttempts = maxAttempts
	c.retryDeadline = deadline
	return c
}

// ParseRecipient resolves Open Question 3: accepts only 0x-prefixed
// hex addresses, rejecting anything else (most notably an ENS-style
// "name.eth" string) with ErrUnsupportedRecipient instead of the
// source implementation's panic. An empty string means contract
// creation (nil recipient).
func ParseRecipient(s string) (*primitives.Address, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		return nil, ErrUnsupportedRecipient
	}
	addr, err := primitives.AddressFromHex(s)
	if err != nil {
		return nil, ErrUnsupportedRecipient
	}
	return &addr, nil
}

// Transact runs a state-mutating transaction to completion: execute,
// check for conflicts, and on a clean check mine+save, retrying on
// conflict up to the configured bound.
func (c *Coordinator) Transact(ctx context.Context, from, signer primitives.Address, to *primitives.Address, data primitives.Bytes, value primitives.Wei, gas primitives.Gas, nonce primitives.Nonce) (*primitives.TransactionMined, error) {
	transactCounter.Inc(1)
	start := time.Now()

	if signer.IsZero() {
		return nil, primitives.Rejected{Reason: primitives.ZeroSigner}
	}

	input := primitives.TransactionInput{
		Hash:   primitives.Keccak256Hash(from.Bytes(), data, nonceBytes(nonce)),
		Nonce:  nonce,
		From:   from,
		Signer: signer,
		To:     to,
		Input:  data,
		Gas:    gas,
		Value:  value,
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if time.Since(start) > c.retryDeadline {
			break
		}

		execution, err := c.pool.Submit(ctx, evm.Transact(from, signer, to, data, value, gas, nonce))
		if err != nil {
			return nil, err
		}

		conflict, err := c.storage.CheckConflicts(*execution)
		if err != nil {
			return nil, err
		}
		if conflictsOnSenderNonce(conflict, from) {
			// Another transaction from the same sender already
			// consumed this nonce: this repo's S4 policy is to
			// reject rather than renumber and retry.
			return nil, primitives.Rejected{Reason: primitives.BadNonce}
		}
		if len(conflict) > 0 {
			logger.Debug("transact conflict before mining, retrying", "attempt", attempt, "conflict", conflict)
			retryCounter.Inc(1)
			continue
		}

		block, saveErr := c.mineAndSave(input, *execution)
		if saveErr == nil {
			c.publish(block)
			mined := block.Transactions[0]
			return &mined, nil
		}
		if conflictErr, isConflict := saveErr.(storage.ConflictError); isConflict {
			if conflictsOnSenderNonce(conflictErr.Conflict, from) {
				return nil, primitives.Rejected{Reason: primitives.BadNonce}
			}
			logger.Debug("save conflict, retrying", "attempt", attempt)
			retryCounter.Inc(1)
			continue
		}
		return nil, saveErr
	}

	exhaustedCounter.Inc(1)
	return nil, ErrExhausted
}

// mineAndSave reserves the next block number, mines, and saves, all
// under minerMu so concurrent Transact calls can never both succeed
// for the same block number (spec.md invariant 2).
func (c *Coordinator) mineAndSave(input primitives.TransactionInput, execution primitives.Execution) (primitives.Block, error) {
	c.minerMu.Lock()
	defer c.minerMu.Unlock()

	head, err := c.storage.ReadBlock(primitives.SelectLatest())
	if err != nil {
		return primitives.Block{}, err
	}
	parentHash := primitives.ZeroHash
	var previousTimestamp time.Time
	if head != nil {
		parentHash = head.Header.Hash
		previousTimestamp = head.Header.Timestamp
	}

	number, err := c.storage.IncrementBlockNumber()
	if err != nil {
		return primitives.Block{}, err
	}

	block := c.miner.Mine(number, parentHash, previousTimestamp, input, execution)
	if err := c.storage.SaveBlock(block); err != nil {
		return primitives.Block{}, err
	}
	return block, nil
}

func (c *Coordinator) publish(block primitives.Block) {
	c.blocks.Send(block)
	for _, tx := range block.Transactions {
		for _, l := range tx.Logs {
			c.logs.Send(l)
		}
	}
}

// Call runs a read-only EVM evaluation at the requested point in time
// and returns its Execution without ever mutating storage.
func (c *Coordinator) Call(ctx context.Context, from primitives.Address, to *primitives.Address, data primitives.Bytes, pointInTime primitives.StoragePointInTime) (*primitives.Execution, error) {
	callCounter.Inc(1)
	return c.pool.Submit(ctx, evm.Call(from, to, data, pointInTime))
}

// ReadBlock, ReadMinedTransaction, and ReadLogs pass read-only queries
// straight through to storage; the coordinator is the single entry
// point transports dispatch to, for reads as well as transact/call.
func (c *Coordinator) ReadBlock(selector primitives.BlockSelector) (*primitives.Block, error) {
	return c.storage.ReadBlock(selector)
}

func (c *Coordinator) ReadMinedTransaction(hash primitives.Hash) (*primitives.TransactionMined, error) {
	return c.storage.ReadMinedTransaction(hash)
}

func (c *Coordinator) ReadLogs(filter filters.Filter) ([]primitives.LogMined, error) {
	return c.storage.ReadLogs(filter)
}

// SubscribeNewHeads returns a subscription delivering every mined block.
func (c *Coordinator) SubscribeNewHeads() *notify.BlockSubscription { return c.blocks.Subscribe() }

// SubscribeLogs returns a subscription delivering every mined log.
func (c *Coordinator) SubscribeLogs() *notify.LogSubscription { return c.logs.Subscribe() }

// conflictsOnSenderNonce reports whether conflict contains a nonce
// divergence on from specifically, as opposed to some other touched
// account (balance, bytecode, slot) — only the former matches S4's
// same-sender-same-nonce race.
func conflictsOnSenderNonce(conflict primitives.StorageConflict, from primitives.Address) bool {
	for _, entry := range conflict {
		if entry.Kind == primitives.ConflictNonce && entry.Address == from {
			return true
		}
	}
	return false
}

func nonceBytes(n primitives.Nonce) []byte {
	b := make([]byte, 8)
	v := uint64(n)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
