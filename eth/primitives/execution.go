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

package primitives

import "time"

// ExecutionResult is the outcome classification of a completed EVM
// execution. Revert and Halt are still "successful" executions in the
// sense that the EVM ran to completion and the execution carries a
// meaningful Output/GasUsed; only EvmError{Crashed} indicates the EVM
// itself failed to run.
type ExecutionResult int

const (
	ResultSuccess ExecutionResult = iota
	ResultRevert
	ResultHalt
)

func (r ExecutionResult) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultRevert:
		return "revert"
	case ResultHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Execution is the immutable output of one EVM evaluation: status,
// gas used, logs, and proposed (not yet committed) state changes.
type Execution struct {
	Result  ExecutionResult
	Output  Bytes
	GasUsed Gas
	Logs    []Log
	Changes []AccountChange

	// BlockTimestampInUse is the timestamp the EVM observed as
	// "current block time" while running, needed by the miner to stay
	// consistent with whatever the execution assumed.
	BlockTimestampInUse time.Time
}

// IsSuccess reports whether the execution completed without reverting or halting.
func (e Execution) IsSuccess() bool { return e.Result == ResultSuccess }
