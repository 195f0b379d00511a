package errx

// 跨模块统一的系统类错误码。业务错误码（SESSION_NOT_FOUND 等）由各自的应用层定义。
const (
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeUnavailable  Code = "SERVICE_UNAVAILABLE"
	CodeTimeout      Code = "TIMEOUT"
	CodeInvalidParam Code = "INVALID_PARAM"
	CodeUnauthorized Code = "UNAUTHORIZED"
)

var (
	ErrInternal     = NewSys(CodeInternal, "服务器内部错误")
	ErrUnavailable  = NewSys(CodeUnavailable, "服务不可用")
	ErrTimeout      = NewSys(CodeTimeout, "请求超时")
	ErrInvalidParam = NewBiz(CodeInvalidParam, "请求参数错误")
	ErrUnauthorized = NewBiz(CodeUnauthorized, "未登录或令牌无效")
)
