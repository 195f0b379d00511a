// Package tracex 在 context 上携带 trace_id 和 span_id，HTTP/WS/gRPC 入口和日志共用。
package tracex

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type ids struct {
	trace string
	span  string
}

type idsKey struct{}

func idsFrom(ctx context.Context) ids {
	if ctx == nil {
		return ids{}
	}
	v, _ := ctx.Value(idsKey{}).(ids)
	return v
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	v := idsFrom(ctx)
	v.trace = traceID
	return context.WithValue(ctx, idsKey{}, v)
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	v := idsFrom(ctx)
	v.span = spanID
	return context.WithValue(ctx, idsKey{}, v)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	t := idsFrom(ctx).trace
	return t, t != ""
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	s := idsFrom(ctx).span
	return s, s != ""
}

// NewTraceID 是去掉连字符的 uuid，32 位 hex。
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSpanID 取 16 位 hex。
func NewSpanID() string {
	return NewTraceID()[:16]
}

// Ensure 为本次调用开一个新 span。traceID 为空时沿用 ctx 上的，ctx 上也没有就新生成。
func Ensure(ctx context.Context, traceID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	v := idsFrom(ctx)
	if traceID != "" {
		v.trace = traceID
	} else if v.trace == "" {
		v.trace = NewTraceID()
	}
	v.span = NewSpanID()
	return context.WithValue(ctx, idsKey{}, v)
}
