package dto

// Resp 是 HTTP 接口统一的响应体，code 为 0 表示成功。
type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func Success(code int, data any) Resp {
	return Resp{Code: code, Data: data}
}

func Error(code int, msg string) Resp {
	return Resp{Code: code, Msg: msg}
}

// UploadBegin 是 ws 上传存档的开始帧。
type UploadBegin struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Encoding string `json:"encoding"`
}

// UploadAck 回报已收到的字节数。
type UploadAck struct {
	Received int64 `json:"received"`
}

// SessionQuery 是 ws 查询的公共部分。
type SessionQuery struct {
	SessionID string `json:"session_id"`
}

type ReportQuery struct {
	ReportID string `json:"report_id"`
}
