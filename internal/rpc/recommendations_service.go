// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package rpc

import (
	"context"
	"io"

	"google.golang.org/grpc"
)

// RecommendedEventStream sends result rows to the caller. One implementation
// per query, all backed by the underlying grpc.ServerStream.
type RecommendedEventStream interface {
	Send(*RecommendedEvent) error
	Context() context.Context
}

// RecommendationsServer is the analyzer's read surface: three
// server-streaming queries over the durable tables.
type RecommendationsServer interface {
	GetRecommendationsForUser(req *UserPredictionsRequest, stream RecommendedEventStream) error
	GetSimilarEvents(req *SimilarEventsRequest, stream RecommendedEventStream) error
	GetInteractionsCount(req *InteractionsCountRequest, stream RecommendedEventStream) error
}

// RegisterRecommendationsServer registers the recommendations service.
func RegisterRecommendationsServer(s *grpc.Server, srv RecommendationsServer) {
	s.RegisterService(&recommendationsServiceDesc, srv)
}

// sendStream adapts grpc.ServerStream to RecommendedEventStream.
type sendStream struct {
	grpc.ServerStream
}

func (s *sendStream) Send(ev *RecommendedEvent) error {
	return s.ServerStream.SendMsg(ev)
}

func getRecommendationsForUserHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(UserPredictionsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RecommendationsServer).GetRecommendationsForUser(req, &sendStream{stream})
}

func getSimilarEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(SimilarEventsRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RecommendationsServer).GetSimilarEvents(req, &sendStream{stream})
}

func getInteractionsCountHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(InteractionsCountRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RecommendationsServer).GetInteractionsCount(req, &sendStream{stream})
}

var recommendationsServiceDesc = grpc.ServiceDesc{
	ServiceName: RecommendationsServiceName,
	HandlerType: (*RecommendationsServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetRecommendationsForUser",
			Handler:       getRecommendationsForUserHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "GetSimilarEvents",
			Handler:       getSimilarEventsHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "GetInteractionsCount",
			Handler:       getInteractionsCountHandler,
			ServerStreams: true,
		},
	},
	Metadata: "eventstats/analyzer/v1",
}

// RecommendationsClient calls the analyzer's streaming queries and collects
// the streamed rows into slices.
type RecommendationsClient struct {
	cc *grpc.ClientConn
}

// NewRecommendationsClient creates a client over an established connection.
func NewRecommendationsClient(cc *grpc.ClientConn) *RecommendationsClient {
	return &RecommendationsClient{cc: cc}
}

// GetRecommendationsForUser returns predicted scores for the user.
func (c *RecommendationsClient) GetRecommendationsForUser(ctx context.Context, req *UserPredictionsRequest) ([]*RecommendedEvent, error) {
	return c.collect(ctx, 0, "GetRecommendationsForUser", req)
}

// GetSimilarEvents returns events similar to the request's event.
func (c *RecommendationsClient) GetSimilarEvents(ctx context.Context, req *SimilarEventsRequest) ([]*RecommendedEvent, error) {
	return c.collect(ctx, 1, "GetSimilarEvents", req)
}

// GetInteractionsCount returns total interaction weight per requested event.
func (c *RecommendationsClient) GetInteractionsCount(ctx context.Context, req *InteractionsCountRequest) ([]*RecommendedEvent, error) {
	return c.collect(ctx, 2, "GetInteractionsCount", req)
}

func (c *RecommendationsClient) collect(ctx context.Context, streamIdx int, method string, req interface{}) ([]*RecommendedEvent, error) {
	stream, err := c.cc.NewStream(ctx, &recommendationsServiceDesc.Streams[streamIdx],
		"/"+RecommendationsServiceName+"/"+method, CallOptions()...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var results []*RecommendedEvent
	for {
		ev := new(RecommendedEvent)
		if err := stream.RecvMsg(ev); err != nil {
			if err == io.EOF {
				return results, nil
			}
			return nil, err
		}
		results = append(results, ev)
	}
}
