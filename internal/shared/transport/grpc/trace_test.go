package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/tracex"
)

func TestTrace_出站注入入站提取(t *testing.T) {
	ctx := tracex.WithSpanID(tracex.WithTraceID(context.Background(), "t-1"), "s-1")
	out := injectTraceToOutgoing(ctx)
	md, _ := metadata.FromOutgoingContext(out)

	in := extractTraceFromIncoming(metadata.NewIncomingContext(context.Background(), md))
	if tid, _ := tracex.TraceIDFrom(in); tid != "t-1" {
		t.Fatalf("期望提取 trace_id=t-1, got=%q", tid)
	}
	if sid, _ := ParentSpanFrom(in); sid != "s-1" {
		t.Fatalf("期望上游 span 记为 parent, got=%q", sid)
	}
}

func TestStatusError_业务码映射(t *testing.T) {
	if StatusError(transport.OK, "") != nil {
		t.Fatalf("期望 OK 返回 nil")
	}
	err := StatusError(transport.NotFound, "session not found")
	if status.Code(err) != codes.NotFound {
		t.Fatalf("期望 NotFound, got=%v", status.Code(err))
	}
	if httpCodeOf(status.Code(err)) != transport.NotFound {
		t.Fatalf("期望往返映射一致")
	}
}
