// EventStats - Real-Time Event Recommendation Pipeline
// Copyright 2026 Ilija Polstianoy (IljiaPolstianoy)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/IljiaPolstianoy/eventstats

package rpc

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName identifies the JSON wire codec in gRPC content subtype
// negotiation.
const CodecName = "json"

// jsonCodec is a gRPC message codec backed by JSON. The RPC surface is
// defined by hand-written Go types rather than generated protobuf code, and
// this codec keeps the wire format aligned with the stream record schema.
type jsonCodec struct{}

// Marshal encodes a message for the wire.
func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal decodes a wire message.
func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// Name returns the codec name used for content subtype negotiation.
func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ServerOptions returns the base gRPC server options for all binaries:
// forces the JSON codec so clients cannot fall back to proto.
func ServerOptions(extra ...grpc.ServerOption) []grpc.ServerOption {
	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
	}
	return append(opts, extra...)
}

// CallOptions returns the base per-call options for clients.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{
		grpc.ForceCodec(jsonCodec{}),
	}
}
