package app

import "Vic2Economy/modules/kit/errx"

// Code 是分析服务的错误码，接口层按它映射 HTTP 状态和业务码。
type Code = errx.Code

const (
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	CodeReportNotFound  Code = "REPORT_NOT_FOUND"
	CodeInvalidQuery    Code = "INVALID_QUERY"
	CodeTooManySessions Code = "TOO_MANY_SESSIONS"
	CodeUnknownCountry  Code = "UNKNOWN_COUNTRY"
	CodeSaveTooLarge    Code = "SAVE_TOO_LARGE"

	CodeDecodeFailed Code = "DECODE_FAILED"
	CodeQueryFailed  Code = "QUERY_FAILED"
	CodeStoreFailed  Code = "STORE_FAILED"
	CodeInternal     Code = errx.CodeInternal
	CodeUnavailable  Code = errx.CodeUnavailable
	CodeTimeout      Code = errx.CodeTimeout
)

type Error = errx.Error

// 哨兵错误：只通过 WithData/WithCause/WithReason 派生，不直接修改。
var (
	ErrSessionNotFound = errx.NewBiz(CodeSessionNotFound, "存档会话不存在")
	ErrReportNotFound  = errx.NewBiz(CodeReportNotFound, "报告不存在")
	ErrInvalidQuery    = errx.NewBiz(CodeInvalidQuery, "查询参数错误")
	ErrTooManySessions = errx.NewBiz(CodeTooManySessions, "打开的存档过多")
	ErrUnknownCountry  = errx.NewBiz(CodeUnknownCountry, "存档里没有该国家")
	ErrSaveTooLarge    = errx.NewBiz(CodeSaveTooLarge, "存档超过上传上限")

	ErrDecodeFailed = errx.NewSys(CodeDecodeFailed, "存档解码失败")
	ErrQueryFailed  = errx.NewSys(CodeQueryFailed, "查询失败")
	ErrStoreFailed  = errx.NewSys(CodeStoreFailed, "报告存储失败")
	ErrInternal     = errx.ErrInternal
)
