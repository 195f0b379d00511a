package ws

// 连接建立后服务端先发 handshake，客户端定时发 heartbeat，两者都不经过路由。
const (
	HandshakeMsg = "handshake"
	HeartbeatMsg = "heartbeat"
)

// ReqBody 是文本帧的 JSON 结构，Name 形如 "query.production"。
type ReqBody struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Msg  any    `json:"msg"`
}

// RespBody 回带请求的 Seq；服务端主动推送时 Seq 为 0。
type RespBody struct {
	Seq  int64  `json:"seq"`
	Name string `json:"name"`
	Code int    `json:"code"`
	Msg  any    `json:"msg"`
}

type WsMsgReq struct {
	Body *ReqBody
	Conn WSConn
}

type WsMsgResp struct {
	Body *RespBody
}

// Reply 写入业务码和内容；msg 为 nil 时保留原有内容。
func (r *WsMsgResp) Reply(code int, msg any) {
	if r == nil || r.Body == nil {
		return
	}
	r.Body.Code = code
	if msg != nil {
		r.Body.Msg = msg
	}
}

// WSConn 是 handler 能看到的连接。上传中的存档这类连接级状态放在 property 里。
type WSConn interface {
	ID() string
	Addr() string
	SetProperty(key string, value any)
	GetProperty(key string) any
	RemoveProperty(key string)
	// Push 推送一帧不对应任何请求的消息（上传进度、错误）。
	Push(name string, data any)
	Close()
	Done() <-chan struct{}
}

type Handshake struct {
	ConnID string `json:"conn_id"`
}

// Heartbeat 原样回带客户端时间，STime 由服务端填。
type Heartbeat struct {
	CTime int64 `json:"ctime"`
	STime int64 `json:"stime"`
}
