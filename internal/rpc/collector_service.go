// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// CollectorServer is the collector's ingestion surface.
type CollectorServer interface {
	CollectUserAction(ctx context.Context, req *UserActionRequest) (*Empty, error)
}

// RegisterCollectorServer registers the collector service on a gRPC server.
func RegisterCollectorServer(s *grpc.Server, srv CollectorServer) {
	s.RegisterService(&collectorServiceDesc, srv)
}

func collectUserActionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UserActionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CollectorServer).CollectUserAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + CollectorServiceName + "/CollectUserAction",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CollectorServer).CollectUserAction(ctx, req.(*UserActionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// collectorServiceDesc is the hand-written service descriptor. The RPC
// surface carries JSON messages, so there is no generated protobuf code to
// anchor this to.
var collectorServiceDesc = grpc.ServiceDesc{
	ServiceName: CollectorServiceName,
	HandlerType: (*CollectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CollectUserAction",
			Handler:    collectUserActionHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eventstats/collector/v1",
}

// CollectorClient calls the collector's ingestion RPC.
type CollectorClient struct {
	cc *grpc.ClientConn
}

// NewCollectorClient creates a client over an established connection.
func NewCollectorClient(cc *grpc.ClientConn) *CollectorClient {
	return &CollectorClient{cc: cc}
}

// CollectUserAction submits one user action for ingestion.
func (c *CollectorClient) CollectUserAction(ctx context.Context, req *UserActionRequest) (*Empty, error) {
	out := new(Empty)
	err := c.cc.Invoke(ctx, "/"+CollectorServiceName+"/CollectUserAction", req, out, CallOptions()...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
