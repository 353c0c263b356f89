// Package stub abstracts the client stubs whose outbound calls the engine
// intercepts, and the codecs that map native call values to the normalized
// form stored in cassettes.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport is the outbound call path of a client stub. Invoke issues the
// call named by method with args and writes the result into reply, which
// must be a pointer.
type Transport interface {
	Invoke(ctx context.Context, method string, args interface{}, reply interface{}) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method string, args interface{}, reply interface{}) error

func (f TransportFunc) Invoke(ctx context.Context, method string, args interface{}, reply interface{}) error {
	return f(ctx, method, args, reply)
}

// Codec converts between a transport's native argument/result values and the
// normalized value trees persisted in cassettes. Normalization must be
// deterministic across runs for the same logical call.
type Codec interface {
	NormalizeArgs(args interface{}) (map[string]interface{}, error)
	NormalizeResult(reply interface{}) (interface{}, error)
	DenormalizeResult(norm interface{}, reply interface{}) error
}

// JSONCodec normalizes plain Go values through a JSON round trip. It suits
// transports whose arguments and results are ordinary structs or maps.
type JSONCodec struct{}

func (JSONCodec) NormalizeArgs(args interface{}) (map[string]interface{}, error) {
	if args == nil {
		return map[string]interface{}{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize call arguments: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("call arguments do not decompose into named fields: %w", err)
	}
	return out, nil
}

func (JSONCodec) NormalizeResult(reply interface{}) (interface{}, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize call result: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (JSONCodec) DenormalizeResult(norm interface{}, reply interface{}) error {
	data, err := json.Marshal(norm)
	if err != nil {
		return fmt.Errorf("failed to encode recorded result: %w", err)
	}
	if err := json.Unmarshal(data, reply); err != nil {
		return fmt.Errorf("recorded result does not fit the caller's reply type: %w", err)
	}
	return nil
}
