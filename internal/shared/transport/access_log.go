package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Vic2Economy/modules/kit/logx"
	"Vic2Economy/modules/kit/tracex"
)

// AccessLog 是一次请求的访问日志上下文，HTTP/WS/gRPC 入口各建一个，结束时写一条。
// 只在处理请求的 goroutine 里修改。
type AccessLog struct {
	BizCode     BizCode
	ErrorReason string

	action  string
	started time.Time
	extra   []zap.Field
}

type accessLogKey struct{}

func NewContext(action string) context.Context {
	return NewContextWithParent(context.Background(), action)
}

// NewContextWithParent 保留 parent 的取消信号和上游 trace_id；没有 trace_id 时新生成一个。
// BizCode 初始为 SystemError，handler 漏设时不会记成成功。
func NewContextWithParent(parent context.Context, action string) context.Context {
	if action == "" {
		action = "unknown"
	}
	return context.WithValue(tracex.Ensure(parent, ""), accessLogKey{}, &AccessLog{
		BizCode: BizCode(SystemError),
		action:  action,
		started: time.Now(),
	})
}

func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

// Action 返回入口名（例如 "GET /api/saves/:id"），没有 AccessLog 时为空串。
func Action(ctx context.Context) string {
	if al := FromContext(ctx); al != nil {
		return al.action
	}
	return ""
}

func SetBizCode(ctx context.Context, code BizCode) {
	if al := FromContext(ctx); al != nil {
		al.BizCode = code
	}
}

func SetErrorReason(ctx context.Context, reason string) {
	if al := FromContext(ctx); al != nil && reason != "" {
		al.ErrorReason = reason
	}
}

// AddField 给这条访问日志追加业务字段，例如 session_id。
func AddField(ctx context.Context, fields ...zap.Field) {
	if al := FromContext(ctx); al != nil {
		al.extra = append(al.extra, fields...)
	}
}

// WriteAccessLog 在请求结束时调用一次。
func WriteAccessLog(ctx context.Context, log logx.Logger) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}
	result := "success"
	fields := make([]zap.Field, 0, 3+len(al.extra))
	fields = append(fields, zap.Duration("latency", time.Since(al.started)))
	if al.BizCode != BizCode(OK) {
		result = "failure"
		if al.ErrorReason != "" {
			fields = append(fields, zap.String("error_reason", al.ErrorReason))
		}
	}
	fields = append(fields, zap.String("result", result))
	fields = append(fields, al.extra...)
	logx.ReportAccess(ctx, log, al.action, int(al.BizCode), fields...)
}
