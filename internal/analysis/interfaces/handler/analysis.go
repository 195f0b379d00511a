package handler

import (
	"context"

	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/errx"
	"Vic2Economy/modules/kit/logx"
)

const systemBusyMsg = "系统繁忙，请稍后重试"

// bizCodes 是服务错误码到对外业务码的映射，未登记的按 transport.CodeOf 兜底。
var bizCodes = map[errx.Code]int{
	app.CodeSessionNotFound: transport.NotFound,
	app.CodeReportNotFound:  transport.NotFound,
	app.CodeUnknownCountry:  transport.NotFound,
	app.CodeInvalidQuery:    transport.InvalidParam,
	app.CodeSaveTooLarge:    transport.TooLarge,
	app.CodeTooManySessions: transport.TooMany,
	app.CodeDecodeFailed:    transport.SystemError,
	app.CodeQueryFailed:     transport.SystemError,
	app.CodeStoreFailed:     transport.Unavailable,
}

// Analysis 是 HTTP/WS/gRPC 三个入口共用的部分：服务和错误处理。
type Analysis struct {
	Service *app.Service
	log     logx.Logger
}

func NewAnalysis(s *app.Service, l logx.Logger) *Analysis {
	if l == nil {
		l = logx.Nop()
	}
	return &Analysis{Service: s, log: l}
}

func (a *Analysis) Log() logx.Logger {
	return a.log
}

// HandleError 打一次错误日志，返回对外的业务码和提示。
// 业务错误把服务给出的 msg 透给调用方，系统错误只给统一提示。
func (a *Analysis) HandleError(ctx context.Context, err error) (int, string) {
	if err == nil {
		return transport.OK, ""
	}
	meta := logx.BuildErrorLog(err)
	if meta.Reason != "" {
		transport.SetErrorReason(ctx, meta.Reason)
	} else if meta.Code != "" {
		transport.SetErrorReason(ctx, meta.Code)
	}
	logx.ReportError(ctx, a.log, transport.Action(ctx), err)

	code := transport.CodeOf(err, bizCodes)
	if e, ok := errx.As(err); ok && e.IsBiz() {
		return code, e.Msg()
	}
	return code, systemBusyMsg
}
