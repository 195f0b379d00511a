package transport

import (
	"errors"
	"net/http"

	"Vic2Economy/modules/kit/errx"
)

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 业务码沿用 HTTP 状态语义，0 表示成功。
const (
	OK           = 0
	InvalidParam = 400
	Unauthorized = 401
	Forbidden    = 403
	NotFound     = 404
	TooLarge     = 413
	TooMany      = 429
	SystemError  = 500
	Unavailable  = 503
	Timeout      = 504
)

// HTTPStatus 把业务码映射成 HTTP 状态码。
func HTTPStatus(code int) int {
	switch {
	case code == OK:
		return http.StatusOK
	case code >= 400 && code < 600:
		return code
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf 按错误码推断业务码：errx 里的业务错误由 codes 表决定，未登记的业务错误视为参数错误，其余为系统错误。
func CodeOf(err error, codes map[errx.Code]int) int {
	if err == nil {
		return OK
	}
	e, ok := errx.As(err)
	if !ok {
		if errors.Is(err, errx.ErrTimeout) {
			return Timeout
		}
		return SystemError
	}
	if c, ok := codes[e.Code()]; ok {
		return c
	}
	switch e.Code() {
	case errx.CodeInvalidParam:
		return InvalidParam
	case errx.CodeUnauthorized:
		return Unauthorized
	case errx.CodeTimeout:
		return Timeout
	case errx.CodeUnavailable:
		return Unavailable
	}
	if e.IsBiz() {
		return InvalidParam
	}
	return SystemError
}
