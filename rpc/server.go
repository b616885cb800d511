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
	"net"
	"net/http"
	"strings"
)

// Server binds a single address and dispatches each connection to
// the websocket handler (on a websocket Upgrade request) or the
// plain JSON-RPC HTTP handler otherwise, matching how the teacher's
// nodes expose one port for both transports.
type Server struct {
	http http.Handler
	ws   http.Handler
	ln   net.Listener
}

func NewServer(h *Handlers) *Server {
	return &Server{http: NewHTTPHandler(h), ws: NewWebsocketHandler(h)}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		s.ws.ServeHTTP(w, r)
		return
	}
	s.http.ServeHTTP(w, r)
}

// Start binds addr and serves in the background, returning once the
// listener is confirmed bound — so callers can distinguish a bind
// failure (exit code 2) from a later runtime error.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := http.Serve(ln, s); err != nil {
			logger.Error("rpc server stopped", "err", err)
		}
	}()
	logger.Info("rpc server listening", "addr", addr)
	return nil
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
