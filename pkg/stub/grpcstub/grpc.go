package grpcstub

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/stubtape/stubtape/pkg/stub"
)

type invokerKey struct{}

type liveCall struct {
	invoker grpc.UnaryInvoker
	cc      *grpc.ClientConn
	opts    []grpc.CallOption
}

// NewStub builds a stub whose live call path is whatever unary invoker the
// interceptor saw for the current call. Wire it into a connection with
// DialOption.
func NewStub(name string) *stub.Stub {
	return stub.New(name, liveTransport{}, NewCodec())
}

// DialOption routes every unary call of a client connection through the
// stub, so record and replay sessions can intercept it.
func DialOption(s *stub.Stub) grpc.DialOption {
	return grpc.WithChainUnaryInterceptor(UnaryClientInterceptor(s))
}

// UnaryClientInterceptor funnels unary calls into the stub's current
// transport. Outside a session the stub dispatches straight back to the real
// invoker, so an un-intercepted connection behaves as if the interceptor
// were absent.
func UnaryClientInterceptor(s *stub.Stub) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = context.WithValue(ctx, invokerKey{}, &liveCall{
			invoker: invoker,
			cc:      cc,
			opts:    opts,
		})
		return s.Invoke(ctx, method, req, reply)
	}
}

// liveTransport is the stub's base call path: it forwards to the unary
// invoker captured by the interceptor for this call.
type liveTransport struct{}

func (liveTransport) Invoke(ctx context.Context, method string, args interface{}, reply interface{}) error {
	call, ok := ctx.Value(invokerKey{}).(*liveCall)
	if !ok {
		return fmt.Errorf("no live gRPC invoker bound to the call context, dial the connection with grpcstub.DialOption")
	}
	return call.invoker(ctx, method, args, reply, call.cc, call.opts...)
}
