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

// Package relational implements eth/storage.EthStorage on top of a SQL
// database via jinzhu/gorm. SaveBlock runs its number/parent check,
// its own conflict re-check and its writes inside a single
// SERIALIZABLE transaction so the database itself enforces the
// linearisability spec.md requires of SaveBlock; CheckConflicts reads
// outside any transaction.
package relational

import (
	"database/sql"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/klaytn/evmexec/eth/filters"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
	"github.com/klaytn/evmexec/log"
)

var logger = log.NewModuleLogger(log.Storage)

// Storage is the relational EthStorage backend.
type Storage struct {
	db *gorm.DB
}

// OpenPostgres opens a Postgres-backed Storage and migrates its schema.
func OpenPostgres(dsn string) (*Storage, error) {
	return open("postgres", dsn)
}

// OpenMySQL opens a MySQL-backed Storage via database/sql's driver
// registry, proving the conflict-check SQL is driver-portable.
func OpenMySQL(dsn string) (*Storage, error) {
	return open("mysql", dsn)
}

func open(dialect, dsn string) (*Storage, error) {
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "open %s: %v", dialect, err)
	}
	db.LogMode(false)
	db.DB().SetMaxOpenConns(32)

	if err := db.AutoMigrate(
		&accountRow{}, &accountHistoryRow{},
		&slotRow{}, &slotHistoryRow{},
		&blockRow{}, &transactionRow{}, &logRow{},
		&blockNumberCounterRow{},
	).Error; err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "migrate: %v", err)
	}
	if err := db.Where("id = ?", blockNumberCounterID).FirstOrCreate(&blockNumberCounterRow{ID: blockNumberCounterID}).Error; err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "seed block number counter: %v", err)
	}
	logger.Info("opened relational storage", "dialect", dialect)
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error { return s.db.Close() }

var _ storage.EthStorage = (*Storage)(nil)

func (s *Storage) ReadAccount(addr primitives.Address, pit primitives.StoragePointInTime) (primitives.Account, error) {
	if pit.Present {
		var row accountRow
		err := s.db.Where("address = ?", addr.Bytes()).First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return primitives.DefaultAccount(addr), nil
		}
		if err != nil {
			return primitives.Account{}, errors.Wrapf(storage.ErrUnavailable, "read account: %v", err)
		}
		return row.toAccount(), nil
	}

	var row accountHistoryRow
	err := s.db.Where("address = ? AND block_number <= ?", addr.Bytes(), uint64(pit.Past)).
		Order("block_number desc").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.DefaultAccount(addr), nil
	}
	if err != nil {
		return primitives.Account{}, errors.Wrapf(storage.ErrUnavailable, "read account history: %v", err)
	}
	return row.toAccount(addr), nil
}

func (s *Storage) ReadSlot(addr primitives.Address, index [32]byte, pit primitives.StoragePointInTime) (primitives.Slot, error) {
	if pit.Present {
		var row slotRow
		err := s.db.Where("address = ? AND slot_index = ?", addr.Bytes(), index[:]).First(&row).Error
		if err == gorm.ErrRecordNotFound {
			return primitives.ZeroSlot(index), nil
		}
		if err != nil {
			return primitives.Slot{}, errors.Wrapf(storage.ErrUnavailable, "read slot: %v", err)
		}
		return row.toSlot(), nil
	}

	var row slotHistoryRow
	err := s.db.Where("address = ? AND slot_index = ? AND block_number <= ?", addr.Bytes(), index[:], uint64(pit.Past)).
		Order("block_number desc").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.ZeroSlot(index), nil
	}
	if err != nil {
		return primitives.Slot{}, errors.Wrapf(storage.ErrUnavailable, "read slot history: %v", err)
	}
	return row.toSlot(), nil
}

func (s *Storage) ReadBlock(selector primitives.BlockSelector) (*primitives.Block, error) {
	var row blockRow
	q := s.db
	switch {
	case selector.Latest:
		q = q.Order("number desc")
	case selector.Number != nil:
		q = q.Where("number = ?", uint64(*selector.Number))
	case selector.Hash != nil:
		q = q.Where("hash = ?", selector.Hash.Bytes())
	default:
		return nil, nil
	}
	if err := q.First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(storage.ErrUnavailable, "read block: %v", err)
	}

	var txRows []transactionRow
	if err := s.db.Where("block_number = ?", row.Number).Order("transaction_index").Find(&txRows).Error; err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "read transactions: %v", err)
	}
	block := row.toBlock()
	for _, t := range txRows {
		mined, err := s.hydrateTransaction(t)
		if err != nil {
			return nil, err
		}
		block.Transactions = append(block.Transactions, mined)
	}
	return &block, nil
}

func (s *Storage) hydrateTransaction(t transactionRow) (primitives.TransactionMined, error) {
	var logRows []logRow
	if err := s.db.Where("tx_hash = ?", t.Hash).Order("log_index").Find(&logRows).Error; err != nil {
		return primitives.TransactionMined{}, errors.Wrapf(storage.ErrUnavailable, "read logs: %v", err)
	}
	logs := make([]primitives.LogMined, 0, len(logRows))
	for _, l := range logRows {
		logs = append(logs, l.toLogMined())
	}
	return t.toTransactionMined(logs), nil
}

func (s *Storage) ReadMinedTransaction(hash primitives.Hash) (*primitives.TransactionMined, error) {
	var row transactionRow
	err := s.db.Where("hash = ?", hash.Bytes()).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "read transaction: %v", err)
	}
	mined, err := s.hydrateTransaction(row)
	if err != nil {
		return nil, err
	}
	return &mined, nil
}

func (s *Storage) ReadLogs(filter filters.Filter) ([]primitives.LogMined, error) {
	q := s.db.Model(&logRow{}).Where("block_number >= ?", uint64(filter.FromBlock))
	if filter.ToBlock != nil {
		q = q.Where("block_number <= ?", uint64(*filter.ToBlock))
	}
	var rows []logRow
	if err := q.Order("block_number, log_index").Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(storage.ErrUnavailable, "read logs: %v", err)
	}
	all := make([]primitives.LogMined, 0, len(rows))
	for _, r := range rows {
		all = append(all, r.toLogMined())
	}
	return filters.Apply(filter, all), nil
}

// CheckConflicts mirrors SaveBlock's divergence check but never writes,
// for the executor's optimistic pre-check before mining.
func (s *Storage) CheckConflicts(execution primitives.Execution) (primitives.StorageConflict, error) {
	var conflict primitives.StorageConflict
	seen := make(map[primitives.Address]bool)
	for _, change := range execution.Changes {
		if seen[change.Address] {
			continue
		}
		seen[change.Address] = true

		current, err := s.ReadAccount(change.Address, primitives.Present)
		if err != nil {
			return nil, err
		}
		conflict = append(conflict, diffAccount(change, current)...)
		for index, slotChange := range change.Slots {
			currentSlot, err := s.ReadSlot(change.Address, index, primitives.Present)
			if err != nil {
				return nil, err
			}
			if currentSlot.Value != slotChange.Original.Value {
				conflict = append(conflict, primitives.ConflictEntry{Address: change.Address, Kind: primitives.ConflictSlot, Slot: index})
			}
		}
	}
	return conflict, nil
}

func diffAccount(change primitives.AccountChange, current primitives.Account) primitives.StorageConflict {
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
	return conflict
}

// SaveBlock runs entirely inside one SERIALIZABLE transaction: the
// block-number/parent-hash check, the conflict re-check, and every row
// write commit or roll back together.
func (s *Storage) SaveBlock(block primitives.Block) (err error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.Wrapf(storage.ErrUnavailable, "begin: %v", tx.Error)
	}
	if execErr := tx.Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").Error; execErr != nil {
		logger.Debug("dialect does not support SET TRANSACTION ISOLATION LEVEL, continuing", "err", execErr)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var maxNumber sql.NullInt64
	if dbErr := tx.Model(&blockRow{}).Select("max(number)").Row().Scan(&maxNumber); dbErr != nil {
		return errors.Wrapf(storage.ErrUnavailable, "read head: %v", dbErr)
	}
	expectedNumber := primitives.BlockNumber(0)
	expectedParent := primitives.ZeroHash
	if maxNumber.Valid {
		expectedNumber = primitives.BlockNumber(maxNumber.Int64) + 1
		var head blockRow
		if dbErr := tx.Where("number = ?", maxNumber.Int64).First(&head).Error; dbErr != nil {
			return errors.Wrapf(storage.ErrUnavailable, "read head row: %v", dbErr)
		}
		expectedParent = primitives.BytesToHash(head.Hash)
	}
	if block.Header.Number != expectedNumber {
		err = storage.ErrNumberMismatch
		return err
	}
	if block.Header.ParentHash != expectedParent {
		err = storage.ErrParentMismatch
		return err
	}

	touched := make(map[primitives.Address]bool)
	for _, txm := range block.Transactions {
		for _, change := range txm.Execution.Changes {
			if change.Address.IsIgnored() || touched[change.Address] {
				continue
			}
			touched[change.Address] = true

			var existing accountRow
			findErr := tx.Where("address = ?", change.Address.Bytes()).First(&existing).Error
			current := primitives.DefaultAccount(change.Address)
			if findErr == nil {
				current = existing.toAccount()
			} else if findErr != gorm.ErrRecordNotFound {
				err = errors.Wrapf(storage.ErrUnavailable, "read account: %v", findErr)
				return err
			}
			if conflict := diffAccount(change, current); len(conflict) > 0 {
				err = storage.ConflictError{Conflict: conflict}
				return err
			}

			updated := fromAccountChange(change)
			if saveErr := tx.Save(&updated).Error; saveErr != nil {
				err = errors.Wrapf(storage.ErrUnavailable, "save account: %v", saveErr)
				return err
			}
			if saveErr := tx.Create(updated.history(block.Header.Number)).Error; saveErr != nil {
				err = errors.Wrapf(storage.ErrUnavailable, "save account history: %v", saveErr)
				return err
			}

			for index, slotChange := range change.Slots {
				var existingSlot slotRow
				slotFindErr := tx.Where("address = ? AND slot_index = ?", change.Address.Bytes(), index[:]).First(&existingSlot).Error
				currentSlot := primitives.ZeroSlot(index)
				if slotFindErr == nil {
					currentSlot = existingSlot.toSlot()
				} else if slotFindErr != gorm.ErrRecordNotFound {
					err = errors.Wrapf(storage.ErrUnavailable, "read slot: %v", slotFindErr)
					return err
				}
				if currentSlot.Value != slotChange.Original.Value {
					err = storage.ConflictError{Conflict: primitives.StorageConflict{{Address: change.Address, Kind: primitives.ConflictSlot, Slot: index}}}
					return err
				}
				row := fromSlot(change.Address, slotChange.Current)
				if saveErr := tx.Save(&row).Error; saveErr != nil {
					err = errors.Wrapf(storage.ErrUnavailable, "save slot: %v", saveErr)
					return err
				}
				if saveErr := tx.Create(row.history(block.Header.Number)).Error; saveErr != nil {
					err = errors.Wrapf(storage.ErrUnavailable, "save slot history: %v", saveErr)
					return err
				}
			}
		}
	}

	blockR := fromBlock(block)
	if saveErr := tx.Create(&blockR).Error; saveErr != nil {
		err = errors.Wrapf(storage.ErrUnavailable, "save block: %v", saveErr)
		return err
	}
	for i, txm := range block.Transactions {
		row := fromTransactionMined(block.Header.Number, primitives.Index(i), txm)
		if saveErr := tx.Create(&row).Error; saveErr != nil {
			err = errors.Wrapf(storage.ErrUnavailable, "save transaction: %v", saveErr)
			return err
		}
		for j, l := range txm.Logs {
			logR := fromLogMined(primitives.Index(j), l)
			if saveErr := tx.Create(&logR).Error; saveErr != nil {
				err = errors.Wrapf(storage.ErrUnavailable, "save log: %v", saveErr)
				return err
			}
		}
	}

	if commitErr := tx.Commit().Error; commitErr != nil {
		err = errors.Wrapf(storage.ErrUnavailable, "commit: %v", commitErr)
		return err
	}
	return nil
}

// IncrementBlockNumber reserves the next block number by locking and
// advancing the single counter row, so two concurrent callers with no
// external serialization always receive distinct numbers — the row
// lock taken by "FOR UPDATE" is what makes this a real reservation
// rather than a racy peek at the current head. SaveBlock's own
// expected-number check is derived from the head, not from this
// counter, so a reservation that never gets saved (a losing race, or a
// caller giving up after a conflict) leaves that number unused instead
// of wedging future appends.
func (s *Storage) IncrementBlockNumber() (n primitives.BlockNumber, err error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return 0, errors.Wrapf(storage.ErrUnavailable, "begin: %v", tx.Error)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var next uint64
	if scanErr := tx.Raw("SELECT next FROM block_number_counters WHERE id = ? FOR UPDATE", blockNumberCounterID).Row().Scan(&next); scanErr != nil {
		err = errors.Wrapf(storage.ErrUnavailable, "lock block number counter: %v", scanErr)
		return 0, err
	}
	if execErr := tx.Exec("UPDATE block_number_counters SET next = ? WHERE id = ?", next+1, blockNumberCounterID).Error; execErr != nil {
		err = errors.Wrapf(storage.ErrUnavailable, "reserve block number: %v", execErr)
		return 0, err
	}
	if commitErr := tx.Commit().Error; commitErr != nil {
		err = errors.Wrapf(storage.ErrUnavailable, "commit: %v", commitErr)
		return 0, err
	}
	return primitives.BlockNumber(next), nil
}
