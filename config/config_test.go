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

package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func errorsCause(err error) error { return errors.Cause(err) }

func resolve(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var resolveErr error

	app := cli.NewApp()
	app.Flags = Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, resolveErr = FromContext(ctx)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"evmexecd"}, args...)))
	return cfg, resolveErr
}

func TestDefaultsToInMemoryStorage(t *testing.T) {
	cfg, err := resolve(t)
	require.NoError(t, err)
	require.Equal(t, StorageInMemory, cfg.Storage)
}

func TestStorageFlagAcceptsPostgresDSN(t *testing.T) {
	cfg, err := resolve(t, "--storage", "postgres://localhost/evmexec")
	require.NoError(t, err)
	require.Equal(t, StorageRelational, cfg.Storage)
	require.Equal(t, "postgres://localhost/evmexec", cfg.StorageDSN)
}

func TestStorageFlagRejectsUnknownScheme(t *testing.T) {
	_, err := resolve(t, "--storage", "mongodb://localhost")
	require.Equal(t, ErrConfig, errorsCause(err))
}

func TestEVMsFlagMustBePositive(t *testing.T) {
	_, err := resolve(t, "--evms", "0")
	require.Equal(t, ErrConfig, errorsCause(err))
}

func TestAddressFlagOverridesDefault(t *testing.T) {
	cfg, err := resolve(t, "--address", "0.0.0.0:9999")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.Address)
}
