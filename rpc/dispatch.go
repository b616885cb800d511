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

package rpc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/klaytn/evmexec/eth/executor"
	"github.com/klaytn/evmexec/eth/primitives"
	"github.com/klaytn/evmexec/eth/storage"
)

// ErrInvalidParams and errUnknownMethod are this package's own
// transport-level errors, distinct from anything the coordinator
// returns.
var ErrInvalidParams = errors.New("invalid params")

// dispatch is the manual method switch every transport in this
// package (HTTP request/response, websocket subscribe) funnels
// through: it decodes req.Params into the handler's expected shape
// and maps the returned error onto a JSON-RPC error code.
func dispatch(ctx context.Context, h *Handlers, req request) response {
	result, err := call(ctx, h, req.Method, req.Params)
	if err != nil {
		return errorResponse(req.ID, codeOf(err), err.Error())
	}
	return successResponse(req.ID, result)
}

func call(ctx context.Context, h *Handlers, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "eth_sendRawTransaction":
		var p sendRawTransactionParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.SendRawTransaction(ctx, p)

	case "eth_call":
		var p callParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.Call(ctx, p)

	case "eth_getTransactionByHash":
		var p [1]primitives.Hash
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.GetTransactionByHash(p[0])

	case "eth_getBlockByNumber":
		var p [1]primitives.BlockNumber
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.GetBlockByNumber(p[0])

	case "eth_getBlockByHash":
		var p [1]primitives.Hash
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.GetBlockByHash(p[0])

	case "eth_getLogs":
		var p getLogsParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.GetLogs(p)

	case "eth_blockNumber":
		return h.BlockNumber()

	case "eth_chainId":
		return h.ChainIDValue()

	default:
		return nil, errUnknownMethod(method)
	}
}

type errUnknownMethod string

func (m errUnknownMethod) Error() string { return "unknown method: " + string(m) }

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return ErrInvalidParams
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidParams
	}
	return nil
}

// codeOf maps a handler error onto a JSON-RPC error code, per
// SPEC_FULL.md §7's taxonomy.
func codeOf(err error) int {
	switch {
	case isRejected(err):
		return codeRejected
	case errors.Cause(err) == executor.ErrExhausted:
		return codeExhausted
	case errors.Cause(err) == executor.ErrUnsupportedRecipient:
		return codeInvalidParams
	case errors.Cause(err) == ErrInvalidParams:
		return codeInvalidParams
	case errors.Cause(err) == storage.ErrUnavailable:
		return codeUnavailable
	case isUnknownMethod(err):
		return codeMethodNotFound
	default:
		return codeInternalError
	}
}

func isRejected(err error) bool {
	_, ok := errors.Cause(err).(primitives.Rejected)
	return ok
}

func isUnknownMethod(err error) bool {
	_, ok := errors.Cause(err).(errUnknownMethod)
	return ok
}
