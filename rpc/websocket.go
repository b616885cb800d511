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
	"net/http"
	"sync"

	"github.com/clevergo/websocket"
	"github.com/hashicorp/go-uuid"

	"github.com/klaytn/evmexec/eth/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribeParams is eth_subscribe's params: an object whose "kind" is
// "newHeads" or "logs". No log filter is read; a logs subscription
// receives every mined log.
type subscribeParams struct {
	Kind string `json:"kind"`
}

type unsubscribeParams struct {
	ID string `json:"id"`
}

// wsSession tracks one websocket connection's live subscriptions so
// eth_unsubscribe can tear the right one down.
type wsSession struct {
	conn *websocket.Conn
	h    *Handlers

	mu     sync.Mutex
	blocks map[string]*notify.BlockSubscription
	logs   map[string]*notify.LogSubscription
}

// NewWebsocketHandler upgrades eth_subscribe/eth_unsubscribe
// connections and fans out newHeads/logs notifications for their
// lifetime.
func NewWebsocketHandler(h *Handlers) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		session := &wsSession{
			conn:   conn,
			h:      h,
			blocks: make(map[string]*notify.BlockSubscription),
			logs:   make(map[string]*notify.LogSubscription),
		}
		session.run()
	})
}

func (s *wsSession) run() {
	defer s.closeAll()
	for {
		var req request
		if err := s.conn.ReadJSON(&req); err != nil {
			return
		}
		go s.handle(req)
	}
}

func (s *wsSession) handle(req request) {
	switch req.Method {
	case "eth_subscribe":
		s.subscribe(req)
	case "eth_unsubscribe":
		s.unsubscribe(req)
	default:
		result, err := call(context.Background(), s.h, req.Method, req.Params)
		if err != nil {
			s.send(errorResponse(req.ID, codeOf(err), err.Error()))
			return
		}
		s.send(successResponse(req.ID, result))
	}
}

func (s *wsSession) subscribe(req request) {
	var p subscribeParams
	if err := decodeParams(req.Params, &p); err != nil {
		s.send(errorResponse(req.ID, codeInvalidParams, err.Error()))
		return
	}

	id, _ := uuid.GenerateUUID()

	switch p.Kind {
	case "newHeads":
		sub := s.h.Coordinator.SubscribeNewHeads()
		s.mu.Lock()
		s.blocks[id] = sub
		s.mu.Unlock()
		go s.pumpBlocks(id, sub)
	case "logs":
		sub := s.h.Coordinator.SubscribeLogs()
		s.mu.Lock()
		s.logs[id] = sub
		s.mu.Unlock()
		go s.pumpLogs(id, sub)
	default:
		s.send(errorResponse(req.ID, codeInvalidParams, "unknown subscription kind"))
		return
	}
	s.send(successResponse(req.ID, id))
}

func (s *wsSession) unsubscribe(req request) {
	var p unsubscribeParams
	if err := decodeParams(req.Params, &p); err != nil {
		s.send(errorResponse(req.ID, codeInvalidParams, err.Error()))
		return
	}

	s.mu.Lock()
	if sub, ok := s.blocks[p.ID]; ok {
		sub.Unsubscribe()
		delete(s.blocks, p.ID)
	}
	if sub, ok := s.logs[p.ID]; ok {
		sub.Unsubscribe()
		delete(s.logs, p.ID)
	}
	s.mu.Unlock()

	s.send(successResponse(req.ID, true))
}

func (s *wsSession) pumpBlocks(id string, sub *notify.BlockSubscription) {
	for {
		block, err, ok := sub.Recv()
		if !ok {
			return
		}
		if err != nil {
			logger.Warn("subscriber lagged on newHeads", "id", id, "err", err)
			continue
		}
		s.sendNotification(id, block)
	}
}

func (s *wsSession) pumpLogs(id string, sub *notify.LogSubscription) {
	for {
		l, err, ok := sub.Recv()
		if !ok {
			return
		}
		if err != nil {
			logger.Warn("subscriber lagged on logs", "id", id, "err", err)
			continue
		}
		s.sendNotification(id, l)
	}
}

type subscriptionNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  notifyParam `json:"params"`
}

type notifyParam struct {
	Subscription string      `json:"subscription"`
	Result       interface{} `json:"result"`
}

func (s *wsSession) sendNotification(id string, result interface{}) {
	s.writeJSON(subscriptionNotification{
		JSONRPC: "2.0",
		Method:  "eth_subscription",
		Params:  notifyParam{Subscription: id, Result: result},
	})
}

func (s *wsSession) send(resp response) { s.writeJSON(resp) }

func (s *wsSession) writeJSON(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		logger.Debug("websocket write failed", "err", err)
	}
}

func (s *wsSession) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.blocks {
		sub.Unsubscribe()
	}
	for _, sub := range s.logs {
		sub.Unsubscribe()
	}
	s.conn.Close()
}

