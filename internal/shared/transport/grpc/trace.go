package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"Vic2Economy/modules/kit/tracex"
)

// 跨进程透传 trace 的 metadata 头
const (
	traceIDHeader = "x-trace-id"
	spanIDHeader  = "x-span-id"
)

type parentSpanKey struct{}

// ParentSpanFrom 返回上游调用方的 span_id。
func ParentSpanFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(parentSpanKey{}).(string)
	return s, ok && s != ""
}

func UnaryClientTraceInterceptor() gogrpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *gogrpc.ClientConn, invoker gogrpc.UnaryInvoker, opts ...gogrpc.CallOption) error {
		return invoker(injectTraceToOutgoing(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientTraceInterceptor 用于上传流这类 client stream。
func StreamClientTraceInterceptor() gogrpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *gogrpc.StreamDesc, cc *gogrpc.ClientConn, method string, streamer gogrpc.Streamer, opts ...gogrpc.CallOption) (gogrpc.ClientStream, error) {
		return streamer(injectTraceToOutgoing(ctx), desc, cc, method, opts...)
	}
}

func UnaryServerTraceInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		return handler(extractTraceFromIncoming(ctx), req)
	}
}

func StreamServerTraceInterceptor() gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		return handler(srv, withContext(ss, extractTraceFromIncoming(ss.Context())))
	}
}

// ctxStream 替换 ServerStream 的 context，拦截器链上每一层都可以再包一次。
type ctxStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (s *ctxStream) Context() context.Context { return s.ctx }

func withContext(ss gogrpc.ServerStream, ctx context.Context) gogrpc.ServerStream {
	return &ctxStream{ServerStream: ss, ctx: ctx}
}

func injectTraceToOutgoing(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	var kv []string
	if id, ok := tracex.TraceIDFrom(ctx); ok {
		kv = append(kv, traceIDHeader, id)
	}
	if id, ok := tracex.SpanIDFrom(ctx); ok {
		kv = append(kv, spanIDHeader, id)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// extractTraceFromIncoming 沿用上游 trace_id，上游的 span_id 记为 parent。
func extractTraceFromIncoming(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if id := firstValue(md, traceIDHeader); id != "" {
		ctx = tracex.WithTraceID(ctx, id)
	}
	if id := firstValue(md, spanIDHeader); id != "" {
		ctx = context.WithValue(ctx, parentSpanKey{}, id)
	}
	return ctx
}

func firstValue(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
