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

	"github.com/klaytn/evmexec/eth/executor"
	"github.com/klaytn/evmexec/eth/filters"
	"github.com/klaytn/evmexec/eth/primitives"
)

// Handlers exposes the coordinator's operations with the exact Go
// signatures a transport dispatches to; HTTP and websocket framing in
// this package are one concrete (but swappable) way to invoke them.
type Handlers struct {
	Coordinator *executor.Coordinator
}

func NewHandlers(c *executor.Coordinator) *Handlers { return &Handlers{Coordinator: c} }

// sendRawTransactionParams mirrors primitives.TransactionInput's
// already-decoded fields: RLP-decode and signature recovery happen
// upstream of this repo (spec.md §4.A), so the wire params are the
// decoded fields themselves rather than a single raw blob.
type sendRawTransactionParams struct {
	From   primitives.Address `json:"from"`
	Signer primitives.Address `json:"signer"`
	To     string             `json:"to"` // "" = contract creation, else 0x-address
	Data   primitives.Bytes   `json:"data"`
	Value  primitives.Wei     `json:"value"`
	Gas    primitives.Gas     `json:"gas"`
	Nonce  primitives.Nonce   `json:"nonce"`
}

func (h *Handlers) SendRawTransaction(ctx context.Context, p sendRawTransactionParams) (*primitives.TransactionMined, error) {
	to, err := executor.ParseRecipient(p.To)
	if err != nil {
		return nil, err
	}
	return h.Coordinator.Transact(ctx, p.From, p.Signer, to, p.Data, p.Value, p.Gas, p.Nonce)
}

type callParams struct {
	From        primitives.Address `json:"from"`
	To          string             `json:"to"`
	Data        primitives.Bytes   `json:"data"`
	BlockNumber *primitives.BlockNumber `json:"blockNumber,omitempty"` // nil == latest
}

func (h *Handlers) Call(ctx context.Context, p callParams) (*primitives.Execution, error) {
	to, err := executor.ParseRecipient(p.To)
	if err != nil {
		return nil, err
	}
	point := primitives.Present
	if p.BlockNumber != nil {
		point = primitives.AtBlock(*p.BlockNumber)
	}
	return h.Coordinator.Call(ctx, p.From, to, p.Data, point)
}

func (h *Handlers) GetTransactionByHash(hash primitives.Hash) (*primitives.TransactionMined, error) {
	return h.Coordinator.ReadMinedTransaction(hash)
}

func (h *Handlers) GetBlockByNumber(number primitives.BlockNumber) (*primitives.Block, error) {
	return h.Coordinator.ReadBlock(primitives.SelectNumber(number))
}

func (h *Handlers) GetBlockByHash(hash primitives.Hash) (*primitives.Block, error) {
	return h.Coordinator.ReadBlock(primitives.SelectHash(hash))
}

// getLogsParams is the wire shape of eth_getLogs, converted into a
// filters.Filter before being handed to the coordinator.
type getLogsParams struct {
	FromBlock          primitives.BlockNumber  `json:"fromBlock"`
	ToBlock            *primitives.BlockNumber `json:"toBlock,omitempty"`
	Addresses          []primitives.Address    `json:"addresses,omitempty"`
	TopicsCombinations [][]topicAt             `json:"topicsCombinations,omitempty"`
}

type topicAt struct {
	Position int                 `json:"position"`
	Topic    primitives.LogTopic `json:"topic"`
}

func (p getLogsParams) toFilter() filters.Filter {
	f := filters.Filter{FromBlock: p.FromBlock, ToBlock: p.ToBlock, Addresses: p.Addresses}
	for _, combo := range p.TopicsCombinations {
		var c filters.TopicCombination
		for _, t := range combo {
			c = append(c, filters.TopicAt{Position: t.Position, Topic: t.Topic})
		}
		f.TopicsCombinations = append(f.TopicsCombinations, c)
	}
	return f
}

func (h *Handlers) GetLogs(p getLogsParams) ([]primitives.LogMined, error) {
	return h.Coordinator.ReadLogs(p.toFilter())
}

func (h *Handlers) BlockNumber() (primitives.BlockNumber, error) {
	head, err := h.Coordinator.ReadBlock(primitives.SelectLatest())
	if err != nil {
		return 0, err
	}
	if head == nil {
		return 0, nil
	}
	return head.Header.Number, nil
}

// ChainID is a fixed, configuration-level value rather than something
// read from storage — this system mines one chain, never forks.
const ChainID uint64 = 1337

func (h *Handlers) ChainIDValue() (uint64, error) { return ChainID, nil }
