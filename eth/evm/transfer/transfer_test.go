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

package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klaytn/evmexec/eth/evm"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage/memory"
)

var alice = primitives.BytesToAddress([]byte{0xA1})
var bob = primitives.BytesToAddress([]byte{0xB0})

func TestExecuteRevertsOnInsufficientBalance(t *testing.T) {
	e := New(memory.New())
	execution, err := e.Execute(evm.Transact(alice, alice, &bob, nil, primitives.NewWei(1), 21000, 0))
	require.NoError(t, err)
	require.Equal(t, primitives.ResultRevert, execution.Result)
}

func TestExecuteSucceedsOnZeroValueTransfer(t *testing.T) {
	e := New(memory.New())
	execution, err := e.Execute(evm.Transact(alice, alice, &bob, nil, primitives.NewWei(0), 21000, 0))
	require.NoError(t, err)
	require.True(t, execution.IsSuccess())
	require.Len(t, execution.Changes, 1)
	require.EqualValues(t, 1, execution.Changes[0].Nonce.Current)
}

func TestExecuteRevertsOnNonEmptyCalldata(t *testing.T) {
	e := New(memory.New())
	execution, err := e.Execute(evm.Transact(alice, alice, &bob, primitives.Bytes{0x01}, primitives.NewWei(0), 21000, 0))
	require.NoError(t, err)
	require.Equal(t, primitives.ResultRevert, execution.Result)
}

func TestExecuteCallDoesNotAdvanceNonce(t *testing.T) {
	e := New(memory.New())
	execution, err := e.Execute(evm.Call(alice, &bob, nil, primitives.Present))
	require.NoError(t, err)
	require.True(t, execution.IsSuccess())
	require.False(t, execution.Changes[0].Nonce.Modified())
}
