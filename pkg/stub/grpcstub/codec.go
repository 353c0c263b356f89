// Package grpcstub adapts gRPC client connections to the engine's stub
// abstraction: calls are normalized through protojson and routed through a
// unary client interceptor.
package grpcstub

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/stubtape/stubtape/pkg/stub"
)

// Codec normalizes proto messages with protojson so cassettes stay readable
// and stable across field reordering. Non-proto values (deferred resolution
// results) round-trip through the plain JSON codec.
type Codec struct {
	marshal   protojson.MarshalOptions
	unmarshal protojson.UnmarshalOptions
	fallback  stub.JSONCodec
}

func NewCodec() *Codec {
	return &Codec{
		marshal:   protojson.MarshalOptions{UseProtoNames: true},
		unmarshal: protojson.UnmarshalOptions{DiscardUnknown: true},
	}
}

func (c *Codec) NormalizeArgs(args interface{}) (map[string]interface{}, error) {
	msg, ok := args.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("gRPC call arguments must be a proto.Message, got %T", args)
	}
	data, err := c.marshal.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize the gRPC request message: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}

func (c *Codec) NormalizeResult(reply interface{}) (interface{}, error) {
	msg, ok := reply.(proto.Message)
	if !ok {
		return c.fallback.NormalizeResult(reply)
	}
	data, err := c.marshal.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize the gRPC response message: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) DenormalizeResult(norm interface{}, reply interface{}) error {
	msg, ok := reply.(proto.Message)
	if !ok {
		return c.fallback.DenormalizeResult(norm, reply)
	}
	data, err := json.Marshal(norm)
	if err != nil {
		return fmt.Errorf("failed to encode the recorded gRPC response: %w", err)
	}
	if err := c.unmarshal.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("recorded response does not fit the reply message type: %w", err)
	}
	return nil
}
