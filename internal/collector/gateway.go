// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/IljiaPolstianoy/eventstats/internal/event"
	"github.com/IljiaPolstianoy/eventstats/internal/logging"
	"github.com/IljiaPolstianoy/eventstats/internal/metrics"
	"github.com/IljiaPolstianoy/eventstats/internal/rpc"
	"github.com/IljiaPolstianoy/eventstats/internal/stream"
)

// ActionPublisher hands validated action records to the durable stream.
type ActionPublisher interface {
	PublishRecord(ctx context.Context, topic, msgID, partitionKey string, payload []byte) error
}

// Gateway is the write-side ingestion endpoint. It validates incoming
// actions, stamps missing timestamps, and publishes to the actions stream.
// The RPC ack means the record is durably handed to the stream producer,
// not that any consumer has processed it.
type Gateway struct {
	publisher  ActionPublisher
	serializer *event.Serializer
	timeout    time.Duration
	now        func() time.Time
}

// NewGateway creates the ingestion gateway. A positive timeout bounds the
// stream publish.
func NewGateway(publisher ActionPublisher, timeout time.Duration) *Gateway {
	return &Gateway{
		publisher:  publisher,
		serializer: event.NewSerializer(),
		timeout:    timeout,
		now:        time.Now,
	}
}

// CollectUserAction validates and publishes one user action.
func (g *Gateway) CollectUserAction(ctx context.Context, req *rpc.UserActionRequest) (*rpc.Empty, error) {
	start := time.Now()

	action, err := g.buildAction(req)
	if err != nil {
		metrics.RecordRPC("collector", "CollectUserAction", codes.InvalidArgument.String(), start)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	payload, err := g.serializer.MarshalUserAction(action)
	if err != nil {
		metrics.RecordRPC("collector", "CollectUserAction", codes.Internal.String(), start)
		logging.Error().Err(err).Msg("Failed to serialize user action")
		return nil, status.Error(codes.Internal, "failed to serialize action")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	msgID := uuid.NewString()
	if err := g.publisher.PublishRecord(ctx, event.TopicUserActions, msgID, action.PartitionKey(), payload); err != nil {
		metrics.RecordRPC("collector", "CollectUserAction", codes.Unavailable.String(), start)
		logging.Error().Err(err).
			Int32("user_id", action.UserID).
			Int32("event_id", action.EventID).
			Msg("Failed to publish user action")
		return nil, status.Error(codes.Unavailable, "failed to publish action")
	}

	metrics.RecordRPC("collector", "CollectUserAction", codes.OK.String(), start)
	logging.Debug().
		Int32("user_id", action.UserID).
		Int32("event_id", action.EventID).
		Str("action_type", string(action.ActionType)).
		Str("msg_id", msgID).
		Msg("User action accepted")
	return &rpc.Empty{}, nil
}

// buildAction converts a wire request into a validated stream record.
// A zero timestamp means the client left it unset; ingestion time is used.
func (g *Gateway) buildAction(req *rpc.UserActionRequest) (*event.UserAction, error) {
	actionType, err := rpc.ActionTypeFromWire(req.ActionType)
	if err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = g.now().UTC()
	}

	action := &event.UserAction{
		SchemaVersion: event.SchemaVersion,
		UserID:        req.UserID,
		EventID:       req.EventID,
		ActionType:    actionType,
		Timestamp:     ts,
	}
	if err := action.Validate(); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}
	return action, nil
}

var _ rpc.CollectorServer = (*Gateway)(nil)
var _ ActionPublisher = (*stream.Publisher)(nil)
