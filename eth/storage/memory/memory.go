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

// Package memory implements eth/storage.EthStorage with a single
// exclusive lock serialising writes and copy-on-write historical
// reads, in the spirit of the teacher's in-process MemDatabase.
package memory

import (
	"encoding/binary"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
	fatihset "gopkg.in/fatih/set.v0"

	"github.com/klaytn/evmexec/eth/filters"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
	"github.com/klaytn/evmexec/log"
)

var logger = log.NewModuleLogger(log.Storage)

// slotKey uniquely identifies one account storage cell.
type slotKey struct {
	addr  primitives.Address
	index [32]byte
}

// blockDiff is the set of account/slot values that changed as of the
// end of one block; Past(n) reads walk diffs backward from n until an
// address/slot is found, giving copy-on-write semantics without
// materialising a full snapshot per block.
type blockDiff struct {
	accounts map[primitives.Address]primitives.Account
	slots    map[slotKey]primitives.Slot
}

// Storage is the in-memory EthStorage implementation. The write half
// of a single sync.RWMutex serialises every mutation (CheckConflicts
// is read-only and takes the read lock only); appends are therefore
// linearisable.
type Storage struct {
	mu sync.RWMutex

	accounts map[primitives.Address]primitives.Account
	slots    map[slotKey]primitives.Slot

	diffs        map[primitives.BlockNumber]*blockDiff
	readCache    *lru.Cache      // recently-read historical (addr,point) -> Account, object cache; slot reads are not cached
	encodedCache *fastcache.Cache // allocated by New; no read or write path uses it

	blocksByNumber map[primitives.BlockNumber]*primitives.Block
	blocksByHash   map[primitives.Hash]*primitives.Block
	txByHash       map[primitives.Hash]*primitives.TransactionMined
	logs           []primitives.LogMined

	nextNumber primitives.BlockNumber
	head       *primitives.Block
}

// New constructs an empty in-memory storage, ready to append a
// genesis block.
func New() *Storage {
	cache, err := lru.New(4096)
	if err != nil {
		panic(err) // only fails for a non-positive size, which is a programmer error
	}
	logger.Info("starting in-memory storage")
	return &Storage{
		accounts:       make(map[primitives.Address]primitives.Account),
		slots:          make(map[slotKey]primitives.Slot),
		diffs:          make(map[primitives.BlockNumber]*blockDiff),
		readCache:      cache,
		encodedCache:   fastcache.New(8 * 1024 * 1024),
		blocksByNumber: make(map[primitives.BlockNumber]*primitives.Block),
		blocksByHash:   make(map[primitives.Hash]*primitives.Block),
		txByHash:       make(map[primitives.Hash]*primitives.TransactionMined),
	}
}

var _ storage.EthStorage = (*Storage)(nil)

func (s *Storage) ReadAccount(addr primitives.Address, pit primitives.StoragePointInTime) (primitives.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pit.Present {
		if a, ok := s.accounts[addr]; ok {
			return a, nil
		}
		return primitives.DefaultAccount(addr), nil
	}
	return s.readAccountAt(addr, pit.Past), nil
}

func (s *Storage) readAccountAt(addr primitives.Address, at primitives.BlockNumber) primitives.Account {
	cacheKey := accountCacheKey(addr, at)
	if v, ok := s.readCache.Get(cacheKey); ok {
		return v.(primitives.Account)
	}

	for n := at; ; {
		if d, ok := s.diffs[n]; ok {
			if a, ok := d.accounts[addr]; ok {
				s.readCache.Add(cacheKey, a)
				return a
			}
		}
		if n == 0 {
			break
		}
		n--
	}
	def := primitives.DefaultAccount(addr)
	s.readCache.Add(cacheKey, def)
	return def
}

func (s *Storage) ReadSlot(addr primitives.Address, index [32]byte, pit primitives.StoragePointInTime) (primitives.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := slotKey{addr: addr, index: index}
	if pit.Present {
		if sl, ok := s.slots[key]; ok {
			return sl, nil
		}
		return primitives.ZeroSlot(index), nil
	}
	return s.readSlotAt(key, pit.Past), nil
}

func (s *Storage) readSlotAt(key slotKey, at primitives.BlockNumber) primitives.Slot {
	for n := at; ; {
		if d, ok := s.diffs[n]; ok {
			if sl, ok := d.slots[key]; ok {
				return sl
			}
		}
		if n == 0 {
			break
		}
		n--
	}
	return primitives.ZeroSlot(key.index)
}

func (s *Storage) ReadBlock(selector primitives.BlockSelector) (*primitives.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case selector.Latest:
		return s.head, nil
	case selector.Number != nil:
		return s.blocksByNumber[*selector.Number], nil
	case selector.Hash != nil:
		return s.blocksByHash[*selector.Hash], nil
	default:
		return nil, nil
	}
}

func (s *Storage) ReadMinedTransaction(hash primitives.Hash) (*primitives.TransactionMined, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txByHash[hash], nil
}

func (s *Storage) ReadLogs(filter filters.Filter) ([]primitives.LogMined, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filters.Apply(filter, s.logs), nil
}

// CheckConflicts compares every address/slot touched by execution
// against the currently committed value, per spec.md §4.C item 6.
func (s *Storage) CheckConflicts(execution primitives.Execution) (primitives.StorageConflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	touched := fatihset.New()
	var conflict primitives.StorageConflict

	for _, change := range execution.Changes {
		if touched.Has(change.Address) {
			continue
		}
		touched.Add(change.Address)

		current, ok := s.accounts[change.Address]
		if !ok {
			current = primitives.DefaultAccount(change.Address)
		}
		if current.Nonce != change.Nonce.Original {
			conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictNonce})
		}
		if current.Balance.Cmp(change.Balance.Original) != 0 {
			conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictBalance})
		}
		if string(current.Bytecode) != string(change.Bytecode.Original) {
			conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictBytecode})
		}
		for index, slotChange := range change.Slots {
			key := slotKey{addr: change.Address, index: index}
			currentSlot, ok := s.slots[key]
			if !ok {
				currentSlot = primitives.ZeroSlot(index)
			}
			if currentSlot.Value != slotChange.Original.Value {
				conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictSlot, Slot: index})
			}
		}
	}
	return conflict, nil
}

// SaveBlock appends block if its number/parent match the current head
// and no conflict is present; both are re-checked here under the
// write lock so two concurrent callers can never both succeed for the
// same number (spec.md invariant 2). The expected number is derived
// from the current head, not from nextNumber — nextNumber is only a
// reservation counter handed out by IncrementBlockNumber, and a caller
// that reserved a number but lost the append race must not permanently
// wedge the chain on a number nobody will ever save.
func (s *Storage) SaveBlock(block primitives.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expectedNumber := primitives.BlockNumber(0)
	if s.head != nil {
		expectedNumber = s.head.Header.Number + 1
	}
	if block.Header.Number != expectedNumber {
		return storage.ErrNumberMismatch
	}
	expectedParent := primitives.ZeroHash
	if s.head != nil {
		expectedParent = s.head.Header.Hash
	}
	if block.Header.ParentHash != expectedParent {
		return storage.ErrParentMismatch
	}

	diff := &blockDiff{
		accounts: make(map[primitives.Address]primitives.Account),
		slots:    make(map[slotKey]primitives.Slot),
	}
	touched := fatihset.New()
	for _, tx := range block.Transactions {
		for _, change := range tx.Execution.Changes {
			if change.Address.IsIgnored() {
				continue // invariant 4: ignored addresses never persist
			}
			if touched.Has(change.Address) {
				continue
			}
			touched.Add(change.Address)

			current, ok := s.accounts[change.Address]
			if !ok {
				current = primitives.DefaultAccount(change.Address)
			}
			var conflict primitives.StorageConflict
			if current.Nonce != change.Nonce.Original {
				conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictNonce})
			}
			if current.Balance.Cmp(change.Balance.Original) != 0 {
				conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictBalance})
			}
			if string(current.Bytecode) != string(change.Bytecode.Original) {
				conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictBytecode})
			}
			if len(conflict) > 0 {
				return storage.ConflictError{Conflict: conflict}
			}

			updated := primitives.Account{
				Address:  change.Address,
				Nonce:    change.Nonce.Current,
				Balance:  change.Balance.Current,
				Bytecode: change.Bytecode.Current,
			}
			diff.accounts[change.Address] = updated

			for index, slotChange := range change.Slots {
				key := slotKey{addr: change.Address, index: index}
				currentSlot, ok := s.slots[key]
				if !ok {
					currentSlot = primitives.ZeroSlot(index)
				}
				if currentSlot.Value != slotChange.Original.Value {
					return storage.ConflictError{Conflict: primitives.StorageConflict{{Address: change.Address, Kind: primitives.ConflictSlot, Slot: index}}}
				}
				diff.slots[key] = slotChange.Current
			}
		}
	}

	// every change has been validated; only now apply them to the
	// current state, so a conflict above leaves that state untouched
	for addr, acc := range diff.accounts {
		s.accounts[addr] = acc
	}
	for key, sl := range diff.slots {
		s.slots[key] = sl
	}
	s.diffs[block.Header.Number] = diff
	s.blocksByNumber[block.Header.Number] = &block
	s.blocksByHash[block.Header.Hash] = &block
	for i := range block.Transactions {
		tx := block.Transactions[i]
		s.txByHash[tx.Input.Hash] = &tx
		s.logs = append(s.logs, tx.Logs...)
	}
	s.head = &block
	if block.Header.Number >= s.nextNumber {
		s.nextNumber = block.Header.Number + 1
	}
	return nil
}

// IncrementBlockNumber reserves and returns the next block number:
// nextNumber is advanced under the write lock before it is handed
// back, so two concurrent callers — with no external serialization —
// always receive distinct, increasing numbers. A reservation that is
// never saved (the caller lost a race, or gave up after a conflict)
// simply leaves that number unused; SaveBlock's own expected-number
// check is derived from the head, not from this counter, so a skipped
// reservation never wedges future appends.
func (s *Storage) IncrementBlockNumber() (primitives.BlockNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextNumber
	s.nextNumber++
	return n, nil
}

func accountCacheKey(addr primitives.Address, at primitives.BlockNumber) [28]byte {
	var k [28]byte
	copy(k[:20], addr[:])
	binary.BigEndian.PutUint64(k[20:], uint64(at))
	return k
}
