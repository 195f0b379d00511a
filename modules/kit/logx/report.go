package logx

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"Vic2Economy/modules/kit/errx"
)

// ErrorLog 是从错误链提取出的可读结构，接口层统一打印。
type ErrorLog struct {
	Error      string         `json:"error"`
	Code       string         `json:"code,omitempty"`
	Msg        string         `json:"msg,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	CauseChain []string       `json:"cause_chain,omitempty"`
	Origin     string         `json:"origin,omitempty"`
	Stack      string         `json:"stack,omitempty"`
}

func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}
	out := ErrorLog{Error: err.Error()}
	if e, ok := errx.As(err); ok {
		out.Code = string(e.Code())
		out.Msg = e.Msg()
		out.Reason = e.Reason()
		out.Data = e.Data()
		out.Origin, out.Stack = formatStack(e.Stack(), 32)
	}
	for cur, i := errors.Unwrap(err), 0; cur != nil && i < 20; cur, i = errors.Unwrap(cur), i+1 {
		out.CauseChain = append(out.CauseChain, fmt.Sprintf("%T: %v", cur, cur))
	}
	return out
}

func formatStack(pcs []uintptr, maxFrames int) (origin, stack string) {
	if len(pcs) == 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	lines := make([]string, 0, maxFrames)
	for i := 0; i < maxFrames; i++ {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" {
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	return lines[0], strings.Join(lines, "\n")
}

// ReportAccess 记录访问日志：biz_code 为 0 记 INFO，1~499 记 WARN，>=500 记 ERROR。
func ReportAccess(ctx context.Context, l Logger, action string, bizCode int, fields ...zap.Field) {
	if l == nil {
		return
	}
	fields = append([]zap.Field{
		zap.String("log_type", "access"),
		zap.String("action", action),
		zap.Int("biz_code", bizCode),
	}, fields...)
	withCtx := l.WithContext(ctx)
	switch {
	case bizCode == 0:
		withCtx.Info("access", fields...)
	case bizCode >= 500:
		withCtx.Error("access", fields...)
	default:
		withCtx.Warn("access", fields...)
	}
}

// ReportError 按错误类型分流：业务错误记 INFO 不带栈，其余记 ERROR 并带上错误码、cause 链和发生处栈。
func ReportError(ctx context.Context, l Logger, action string, err error, fields ...zap.Field) {
	if l == nil || err == nil {
		return
	}
	meta := BuildErrorLog(err)
	if e, ok := errx.As(err); ok && e.IsBiz() {
		base := []zap.Field{zap.String("err_type", "biz"), zap.String("action", action), zap.String("error_code", meta.Code)}
		if meta.Reason != "" {
			base = append(base, zap.String("reason", meta.Reason))
		}
		l.WithContext(ctx).Info(fmt.Sprintf("%s rejected: %s", action, meta.Error), append(base, fields...)...)
		return
	}

	base := []zap.Field{zap.String("err_type", "sys"), zap.String("action", action)}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin), zap.String("stack_origin", meta.Stack))
	}
	l.WithContext(ctx).Error(fmt.Sprintf("%s failed: %s", action, meta.Error), append(base, fields...)...)
}
