// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package collector

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/rpc"
)

// GRPCServer runs the collector's gRPC endpoint as a supervised service.
type GRPCServer struct {
	addr    string
	gateway *Gateway
}

// NewGRPCServer creates the collector's gRPC endpoint.
func NewGRPCServer(addr string, gateway *Gateway) *GRPCServer {
	return &GRPCServer{addr: addr, gateway: gateway}
}

// Serve listens until context cancellation. Implements suture.Service.
func (s *GRPCServer) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	server := grpc.NewServer(rpc.ServerOptions()...)
	rpc.RegisterCollectorServer(server, s.gateway)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	logging.Info().Str("addr", s.addr).Msg("Collector gRPC listening")

	select {
	case <-ctx.Done():
		server.GracefulStop()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
