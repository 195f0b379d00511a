package grpc

import (
	"context"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/logx"
)

// Dial 建立带 trace 透传的 grpc 连接，extra 追加在默认选项之后（测试里用来换成 bufconn）。
func Dial(target string, extra ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	opts := append([]gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithChainUnaryInterceptor(UnaryClientTraceInterceptor()),
		gogrpc.WithChainStreamInterceptor(StreamClientTraceInterceptor()),
	}, extra...)
	conn, err := gogrpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", target, err)
	}
	return conn, nil
}

// NewServer 创建 grpc server：先提取 trace，再写 access 日志，unary 和 stream 都一样。
func NewServer(log logx.Logger, opts ...gogrpc.ServerOption) *gogrpc.Server {
	opts = append(opts,
		gogrpc.ChainUnaryInterceptor(UnaryServerTraceInterceptor(), UnaryServerAccessLogInterceptor(log)),
		gogrpc.ChainStreamInterceptor(StreamServerTraceInterceptor(), StreamServerAccessLogInterceptor(log)),
	)
	return gogrpc.NewServer(opts...)
}

// UnaryServerAccessLogInterceptor 为每个 unary 调用写一条 access 日志，业务码取自 grpc status code。
func UnaryServerAccessLogInterceptor(log logx.Logger) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		ctx = transport.NewContextWithParent(ctx, "grpc "+info.FullMethod)
		resp, err := handler(ctx, req)
		finish(ctx, log, err)
		return resp, err
	}
}

// StreamServerAccessLogInterceptor 在流结束时写 access 日志，handler 从 stream.Context() 拿到同一个 AccessLog。
func StreamServerAccessLogInterceptor(log logx.Logger) gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, info *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		ctx := transport.NewContextWithParent(ss.Context(), "grpc "+info.FullMethod)
		err := handler(srv, withContext(ss, ctx))
		finish(ctx, log, err)
		return err
	}
}

func finish(ctx context.Context, log logx.Logger, err error) {
	if err == nil {
		transport.SetBizCode(ctx, transport.BizCode(transport.OK))
	} else {
		st := status.Convert(err)
		transport.SetBizCode(ctx, transport.BizCode(httpCodeOf(st.Code())))
		// handler 已经记过更具体的原因时不覆盖
		if al := transport.FromContext(ctx); al != nil && al.ErrorReason == "" {
			transport.SetErrorReason(ctx, st.Message())
		}
	}
	transport.WriteAccessLog(ctx, log)
}
