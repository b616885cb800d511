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

// Package storage defines EthStorage, the capability set every
// storage backend (in-memory or relational) must implement: reads at
// a point in time, conflict detection, and linearisable block append.
package storage

import (
	"github.com/klaytn/evmexec/eth/filters"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/pkg/errors"
)

// ErrUnavailable wraps any underlying driver/connection failure.
var ErrUnavailable = errors.New("storage unavailable")

// ErrNumberMismatch is returned by SaveBlock when the block's number
// is not the current head's number plus one (0 for an empty chain).
var ErrNumberMismatch = errors.New("block number mismatch")

// ErrParentMismatch is returned by SaveBlock when the block's parent
// hash does not match the current head's hash.
var ErrParentMismatch = errors.New("parent hash mismatch")

// EthStorage is the full capability set spec.md §4.C requires of a
// storage backend. Every method may fail with ErrUnavailable (wrapped
// with backend-specific detail).
type EthStorage interface {
	ReadAccount(addr primitives.Address, pointInTime primitives.StoragePointInTime) (primitives.Account, error)
	ReadSlot(addr primitives.Address, index [32]byte, pointInTime primitives.StoragePointInTime) (primitives.Slot, error)
	ReadBlock(selector primitives.BlockSelector) (*primitives.Block, error)
	ReadMinedTransaction(hash primitives.Hash) (*primitives.TransactionMined, error)
	ReadLogs(filter filters.Filter) ([]primitives.LogMined, error)

	// CheckConflicts compares execution.Changes' Original values
	// against what is currently committed, returning a non-empty
	// StorageConflict iff any diverge.
	CheckConflicts(execution primitives.Execution) (primitives.StorageConflict, error)

	// SaveBlock must be linearisable: of any concurrently-attempted
	// SaveBlock calls, at most one succeeds for a given block number,
	// and only one ordering of successful appends is ever observable.
	SaveBlock(block primitives.Block) error

	// IncrementBlockNumber reserves the next block number under the
	// same linearisation as SaveBlock.
	IncrementBlockNumber() (primitives.BlockNumber, error)
}

// ConflictError carries a StorageConflict as a distinguishable error
// type so SaveBlock callers can type-assert it apart from
// ErrNumberMismatch/ErrParentMismatch/ErrUnavailable.
type ConflictError struct {
	Conflict primitives.StorageConflict
}

func (e ConflictError) Error() string { return e.Conflict.Error() }
