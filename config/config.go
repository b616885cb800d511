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

// Package config parses the command-line/environment surface of
// evmexecd, following the teacher's cli.v1 flag-with-EnvVar idiom.
package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// ErrConfig is returned for any value this package cannot make sense
// of: an unrecognised --storage scheme, a non-positive worker count.
var ErrConfig = errors.New("invalid configuration")

// StorageKind selects which eth/storage backend evmexecd wires up.
type StorageKind int

const (
	StorageInMemory StorageKind = iota
	StorageRelational
)

func (k StorageKind) String() string {
	if k == StorageRelational {
		return "relational"
	}
	return "inmemory"
}

// Config is the fully-resolved configuration evmexecd runs with.
type Config struct {
	Storage    StorageKind
	StorageDSN string // postgres://... or mysql://...; empty for in-memory

	Address string

	EVMs            int
	AsyncThreads    int
	BlockingThreads int
}

var (
	StorageFlag = cli.StringFlag{
		Name:   "storage",
		Usage:  `"inmemory", or a postgres://... / mysql://... DSN`,
		Value:  "inmemory",
		EnvVar: "STORAGE",
	}
	AddressFlag = cli.StringFlag{
		Name:   "address",
		Usage:  "address the JSON-RPC server listens on",
		Value:  "0.0.0.0:3000",
		EnvVar: "ADDRESS",
	}
	EVMsFlag = cli.IntFlag{
		Name:   "evms",
		Usage:  "number of EVM worker goroutines in the execution pool",
		Value:  1,
		EnvVar: "EVMS",
	}
	AsyncThreadsFlag = cli.IntFlag{
		Name:   "async-threads",
		Usage:  "async thread count (validated; not otherwise used)",
		Value:  1,
		EnvVar: "ASYNC_THREADS",
	}
	BlockingThreadsFlag = cli.IntFlag{
		Name:   "blocking-threads",
		Usage:  "blocking thread count (validated; not otherwise used)",
		Value:  1,
		EnvVar: "BLOCKING_THREADS",
	}
	ConfigFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file, applied before flag/env overrides",
	}
)

// Flags is the full flag set cmd/evmexecd registers on its cli.App.
var Flags = []cli.Flag{StorageFlag, AddressFlag, EVMsFlag, AsyncThreadsFlag, BlockingThreadsFlag, ConfigFileFlag}

// FromContext resolves a Config from parsed CLI flags (which already
// carry the EnvVar fallback, since urfave/cli applies that itself),
// optionally overlaid on a TOML file loaded first.
func FromContext(ctx *cli.Context) (*Config, error) {
	cfg := &Config{
		Address:         AddressFlag.Value,
		EVMs:            EVMsFlag.Value,
		AsyncThreads:    AsyncThreadsFlag.Value,
		BlockingThreads: BlockingThreadsFlag.Value,
	}

	if file := ctx.String(ConfigFileFlag.Name); file != "" {
		if err := loadFile(file, cfg); err != nil {
			return nil, errors.Wrapf(ErrConfig, "config file %s: %v", file, err)
		}
	}

	if ctx.IsSet(AddressFlag.Name) {
		cfg.Address = ctx.String(AddressFlag.Name)
	}
	if ctx.IsSet(EVMsFlag.Name) {
		cfg.EVMs = ctx.Int(EVMsFlag.Name)
	}
	if ctx.IsSet(AsyncThreadsFlag.Name) {
		cfg.AsyncThreads = ctx.Int(AsyncThreadsFlag.Name)
	}
	if ctx.IsSet(BlockingThreadsFlag.Name) {
		cfg.BlockingThreads = ctx.Int(BlockingThreadsFlag.Name)
	}

	if ctx.IsSet(StorageFlag.Name) {
		if err := applyStorage(cfg, ctx.String(StorageFlag.Name)); err != nil {
			return nil, err
		}
	} else if cfg.StorageDSN == "" && cfg.Storage == StorageInMemory {
		// neither a config file nor a flag named a storage backend
		if err := applyStorage(cfg, StorageFlag.Value); err != nil {
			return nil, err
		}
	}

	if cfg.EVMs <= 0 {
		return nil, errors.Wrapf(ErrConfig, "--evms must be positive, got %d", cfg.EVMs)
	}
	if cfg.AsyncThreads <= 0 || cfg.BlockingThreads <= 0 {
		return nil, errors.Wrap(ErrConfig, "thread pool sizes must be positive")
	}

	logger.Info("resolved configuration", "storage", cfg.Storage, "address", cfg.Address, "evms", cfg.EVMs)
	return cfg, nil
}

func applyStorage(cfg *Config, raw string) error {
	switch {
	case raw == "" || raw == "inmemory":
		cfg.Storage = StorageInMemory
		cfg.StorageDSN = ""
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "mysql://"):
		cfg.Storage = StorageRelational
		cfg.StorageDSN = raw
	default:
		return errors.Wrapf(ErrConfig, "unrecognised --storage value %q", raw)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var fileCfg struct {
		Storage         string
		Address         string
		EVMs            int
		AsyncThreads    int
		BlockingThreads int
	}
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&fileCfg); err != nil {
		return err
	}
	if fileCfg.Storage != "" {
		if err := applyStorage(cfg, fileCfg.Storage); err != nil {
			return err
		}
	}
	if fileCfg.Address != "" {
		cfg.Address = fileCfg.Address
	}
	if fileCfg.EVMs != 0 {
		cfg.EVMs = fileCfg.EVMs
	}
	if fileCfg.AsyncThreads != 0 {
		cfg.AsyncThreads = fileCfg.AsyncThreads
	}
	if fileCfg.BlockingThreads != 0 {
		cfg.BlockingThreads = fileCfg.BlockingThreads
	}
	return nil
}
