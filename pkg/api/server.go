// Copyright 2024 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pingcap/log"
	"github.com/urfave/negroni/v3"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/throttle"
	"github.com/tikv/throttle/pkg/workload"
)

const shutdownTimeout = 5 * time.Second

// Service is what the handlers serve.
type Service struct {
	reserver       *throttle.Reserver
	backend        string
	startTimestamp int64
	stats          func() workload.Stats
}

// NewService creates a Service. stats may be nil when no workload runs in
// the process.
func NewService(reserver *throttle.Reserver, backend string, stats func() workload.Stats) *Service {
	return &Service{
		reserver:       reserver,
		backend:        backend,
		startTimestamp: time.Now().Unix(),
		stats:          stats,
	}
}

// NewHandler creates the HTTP handler of the service.
func NewHandler(svc *Service) http.Handler {
	engine := negroni.New()
	engine.Use(negroni.NewRecovery())
	engine.UseHandler(createRouter(APIPrefix, svc))
	return engine
}

// Server is a running HTTP server.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// StartServer listens on addr and serves the service in background.
func StartServer(addr string, svc *Service) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{Handler: NewHandler(svc), ReadHeaderTimeout: 3 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("status server stopped", zap.Error(err))
		}
	}()
	log.Info("status server started", zap.String("address", ln.Addr().String()))
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close shuts down the server gracefully.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
