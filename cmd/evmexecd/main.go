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

// Command evmexecd wires the config, storage, EVM pool, miner,
// executor coordinator and JSON-RPC server together and runs them
// until terminated.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/klaytn/evmexec/config"
	"github.com/klaytn/evmexec/eth/evm"
	"github.com/klaytn/evmexec/eth/evm/transfer"
	"github.com/klaytn/evmexec/eth/executor"
	"github.com/klaytn/evmexec/eth/miner"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
	"github.com/klaytn/evmexec/eth/storage/memory"
	"github.com/klaytn/evmexec/eth/storage/relational"
	"github.com/klaytn/evmexec/log"
	"github.com/klaytn/evmexec/metrics"
	"github.com/klaytn/evmexec/rpc"
)

// Exit codes, per the deployment surface this binary exposes: 0 clean
// shutdown, 1 configuration error, 2 RPC bind failure, 3 fatal
// storage error.
const (
	exitOK = iota
	exitConfig
	exitBind
	exitStorage
)

var logger = log.NewModuleLogger(log.CMD)

var (
	metricsFlag = cli.BoolFlag{
		Name:   "metrics",
		Usage:  "expose Prometheus metrics",
		EnvVar: "METRICS",
	}
	metricsAddressFlag = cli.StringFlag{
		Name:   "metrics-address",
		Usage:  "address the Prometheus exporter listens on",
		Value:  "127.0.0.1:6060",
		EnvVar: "METRICS_ADDRESS",
	}
)

// runError carries the process exit code a failure should produce;
// run returns one of these instead of a bare error so main can decide
// the code without re-inspecting error causes.
type runError struct {
	code int
	err  error
}

func (e runError) Error() string { return e.err.Error() }

func main() {
	app := cli.NewApp()
	app.Name = "evmexecd"
	app.Usage = "single-node Ethereum-semantics execution coordinator"
	app.Flags = append(config.Flags, metricsFlag, metricsAddressFlag)
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if re, ok := err.(runError); ok {
			os.Exit(re.code)
		}
		os.Exit(exitConfig)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return runError{exitConfig, err}
	}

	if ctx.Bool(metricsFlag.Name) {
		go metrics.CollectProcessMetrics(3 * time.Second)
		if err := metrics.ServePrometheus(ctx.String(metricsAddressFlag.Name)); err != nil {
			return runError{exitBind, err}
		}
	}

	s, err := openStorage(cfg)
	if err != nil {
		logger.Error("failed to open storage", "err", err)
		return runError{exitStorage, err}
	}

	pool := evm.NewPool(newEvms(cfg.EVMs, s))
	defer pool.Close()

	coordinator := executor.New(s, pool, miner.New(primitives.COINBASE))
	handlers := rpc.NewHandlers(coordinator)
	server := rpc.NewServer(handlers)

	if err := server.Start(cfg.Address); err != nil {
		logger.Error("failed to bind rpc server", "address", cfg.Address, "err", err)
		return runError{exitBind, err}
	}
	defer server.Close()

	logger.Info("evmexecd started", "address", cfg.Address, "storage", cfg.Storage, "evms", cfg.EVMs)
	waitForSignal()
	logger.Info("evmexecd shutting down")
	return nil
}

// newEvms builds one evm.Evm per worker goroutine. The coordinator's
// pool is meant to host a real EVM evaluator (out of scope for this
// repository); transfer.Evm is the reference implementation wired up
// by default.
func newEvms(n int, s storage.EthStorage) []evm.Evm {
	evms := make([]evm.Evm, n)
	for i := range evms {
		evms[i] = transfer.New(s)
	}
	return evms
}

func openStorage(cfg *config.Config) (storage.EthStorage, error) {
	switch cfg.Storage {
	case config.StorageRelational:
		if len(cfg.StorageDSN) >= len("mysql://") && cfg.StorageDSN[:8] == "mysql://" {
			return relational.OpenMySQL(cfg.StorageDSN[len("mysql://"):])
		}
		return relational.OpenPostgres(cfg.StorageDSN)
	default:
		return memory.New(), nil
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
