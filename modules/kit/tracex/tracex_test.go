package tracex

import (
	"context"
	"testing"
)

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "t-1")
	if got, ok := TraceIDFrom(ctx); !ok || got != "t-1" {
		t.Fatalf("期望 TraceIDFrom round-trip 成功，got=%q ok=%v", got, ok)
	}
	if _, ok := SpanIDFrom(ctx); ok {
		t.Fatalf("期望未设置 span 时返回 false")
	}
}

func TestNewTraceID_格式(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if len(a) != 32 || a == b {
		t.Fatalf("期望 32 位且每次不同, a=%q b=%q", a, b)
	}
	if len(NewSpanID()) != 16 {
		t.Fatalf("期望 span_id 16 位")
	}
}

func TestEnsure_沿用上游trace并开新span(t *testing.T) {
	ctx := Ensure(context.Background(), "upstream")
	tid, _ := TraceIDFrom(ctx)
	sid1, ok := SpanIDFrom(ctx)
	if tid != "upstream" || !ok {
		t.Fatalf("期望沿用上游 trace_id, got=%q", tid)
	}
	child := Ensure(ctx, "")
	tid2, _ := TraceIDFrom(child)
	sid2, _ := SpanIDFrom(child)
	if tid2 != "upstream" || sid2 == sid1 {
		t.Fatalf("期望子调用同 trace 不同 span, tid=%q sid1=%q sid2=%q", tid2, sid1, sid2)
	}
	if _, ok := TraceIDFrom(Ensure(nil, "")); !ok {
		t.Fatalf("期望 nil ctx 也能生成 trace_id")
	}
}
