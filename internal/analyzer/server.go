// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package analyzer

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
	"github.com/IljiaPolstianoy/eventstats/internal/recommend"
	"github.com/IljiaPolstianoy/eventstats/internal/rpc"
)

// RecommendationsHandler serves the three read queries over gRPC, backed by
// the recommendation service. Any internal failure is surfaced as a status
// error; once an error is signaled no further rows are sent for that call.
type RecommendationsHandler struct {
	svc     *recommend.Service
	timeout time.Duration
}

// NewRecommendationsHandler creates the RPC handler. A positive timeout
// bounds each backing query.
func NewRecommendationsHandler(svc *recommend.Service, timeout time.Duration) *RecommendationsHandler {
	return &RecommendationsHandler{svc: svc, timeout: timeout}
}

func (h *RecommendationsHandler) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

// GetRecommendationsForUser streams predicted (event, score) rows.
func (h *RecommendationsHandler) GetRecommendationsForUser(req *rpc.UserPredictionsRequest, stream rpc.RecommendedEventStream) error {
	start := time.Now()
	if req.UserID <= 0 {
		metrics.RecordRPC("recommendations", "GetRecommendationsForUser", codes.InvalidArgument.String(), start)
		return status.Error(codes.InvalidArgument, "user_id must be positive")
	}

	ctx, cancel := h.queryContext(stream.Context())
	defer cancel()
	results, err := h.svc.RecommendationsForUser(ctx, req.UserID, int(req.MaxResults))
	if err != nil {
		metrics.RecordRPC("recommendations", "GetRecommendationsForUser", codes.Internal.String(), start)
		logging.Error().Err(err).Int32("user_id", req.UserID).Msg("Predictions query failed")
		return status.Error(codes.Internal, "failed to compute recommendations")
	}

	if err := sendAll(stream, results); err != nil {
		return err
	}
	metrics.RecordRPC("recommendations", "GetRecommendationsForUser", codes.OK.String(), start)
	metrics.RPCStreamedResults.WithLabelValues("GetRecommendationsForUser").Observe(float64(len(results)))
	return nil
}

// GetSimilarEvents streams events similar to the requested one.
func (h *RecommendationsHandler) GetSimilarEvents(req *rpc.SimilarEventsRequest, stream rpc.RecommendedEventStream) error {
	start := time.Now()
	if req.EventID <= 0 || req.UserID <= 0 {
		metrics.RecordRPC("recommendations", "GetSimilarEvents", codes.InvalidArgument.String(), start)
		return status.Error(codes.InvalidArgument, "event_id and user_id must be positive")
	}

	ctx, cancel := h.queryContext(stream.Context())
	defer cancel()
	results, err := h.svc.SimilarEvents(ctx, req.EventID, req.UserID, int(req.MaxResults))
	if err != nil {
		metrics.RecordRPC("recommendations", "GetSimilarEvents", codes.Internal.String(), start)
		logging.Error().Err(err).Int32("event_id", req.EventID).Msg("Similarity query failed")
		return status.Error(codes.Internal, "failed to load similar events")
	}

	if err := sendAll(stream, results); err != nil {
		return err
	}
	metrics.RecordRPC("recommendations", "GetSimilarEvents", codes.OK.String(), start)
	metrics.RPCStreamedResults.WithLabelValues("GetSimilarEvents").Observe(float64(len(results)))
	return nil
}

// GetInteractionsCount streams total interaction weight per requested event.
func (h *RecommendationsHandler) GetInteractionsCount(req *rpc.InteractionsCountRequest, stream rpc.RecommendedEventStream) error {
	start := time.Now()
	if len(req.EventIDs) == 0 {
		metrics.RecordRPC("recommendations", "GetInteractionsCount", codes.InvalidArgument.String(), start)
		return status.Error(codes.InvalidArgument, "event_ids must not be empty")
	}

	ctx, cancel := h.queryContext(stream.Context())
	defer cancel()
	results, err := h.svc.InteractionTotals(ctx, req.EventIDs)
	if err != nil {
		metrics.RecordRPC("recommendations", "GetInteractionsCount", codes.Internal.String(), start)
		logging.Error().Err(err).Msg("Interaction totals query failed")
		return status.Error(codes.Internal, "failed to load interaction totals")
	}

	if err := sendAll(stream, results); err != nil {
		return err
	}
	metrics.RecordRPC("recommendations", "GetInteractionsCount", codes.OK.String(), start)
	metrics.RPCStreamedResults.WithLabelValues("GetInteractionsCount").Observe(float64(len(results)))
	return nil
}

func sendAll(stream rpc.RecommendedEventStream, results []recommend.Scored) error {
	for _, r := range results {
		if err := stream.Send(&rpc.RecommendedEvent{EventID: r.EventID, Score: r.Score}); err != nil {
			return err
		}
	}
	return nil
}

// GRPCServer runs the analyzer's gRPC endpoint as a supervised service.
type GRPCServer struct {
	addr    string
	handler *RecommendationsHandler
}

// NewGRPCServer creates the analyzer's gRPC endpoint.
func NewGRPCServer(addr string, handler *RecommendationsHandler) *GRPCServer {
	return &GRPCServer{addr: addr, handler: handler}
}

// Serve listens until context cancellation. Implements suture.Service.
func (s *GRPCServer) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	server := grpc.NewServer(rpc.ServerOptions()...)
	rpc.RegisterRecommendationsServer(server, s.handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	logging.Info().Str("addr", s.addr).Msg("Analyzer gRPC listening")

	select {
	case <-ctx.Done():
		server.GracefulStop()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
