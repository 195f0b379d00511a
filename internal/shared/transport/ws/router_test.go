package ws

import (
	"context"
	"testing"

	"Vic2Economy/internal/shared/transport"
)

type fakeConn struct {
	props  map[string]any
	pushed []string
	done   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{props: map[string]any{}, done: make(chan struct{})}
}

func (f *fakeConn) ID() string                  { return "c-1" }
func (f *fakeConn) SetProperty(k string, v any) { f.props[k] = v }
func (f *fakeConn) GetProperty(k string) any    { return f.props[k] }
func (f *fakeConn) RemoveProperty(k string)     { delete(f.props, k) }
func (f *fakeConn) Addr() string                { return "127.0.0.1:1" }
func (f *fakeConn) Push(name string, _ any)     { f.pushed = append(f.pushed, name) }
func (f *fakeConn) Close()                      {}
func (f *fakeConn) Done() <-chan struct{}       { return f.done }

func TestRouter_Dispatch命中处理器(t *testing.T) {
	r := NewRouter(nil)
	r.Group("save").Handle("status", func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
		resp.Body.Code = transport.OK
		resp.Body.Msg = "ok"
	})

	resp := &WsMsgResp{Body: &RespBody{}}
	r.Dispatch(&WsMsgReq{Body: &ReqBody{Name: "save.status"}, Conn: newFakeConn()}, resp)
	if resp.Body.Code != transport.OK || resp.Body.Msg != "ok" {
		t.Fatalf("期望处理器被调用, got=%+v", resp.Body)
	}
}

func TestRouter_Dispatch路由错误(t *testing.T) {
	r := NewRouter(nil)
	r.Group("save")
	cases := []struct {
		name string
		want int
	}{
		{"bad", transport.InvalidParam},
		{"a.b.c", transport.InvalidParam},
		{"query.run", transport.NotFound},
		{"save.missing", transport.NotFound},
	}
	for _, c := range cases {
		resp := &WsMsgResp{Body: &RespBody{}}
		r.Dispatch(&WsMsgReq{Body: &ReqBody{Name: c.name}}, resp)
		if resp.Body.Code != c.want {
			t.Fatalf("%s: 期望 %d, got=%d", c.name, c.want, resp.Body.Code)
		}
	}
}

func TestRouter_处理器漏设业务码时为系统错误(t *testing.T) {
	r := NewRouter(nil)
	r.Group("save").Handle("noop", func(context.Context, *WsMsgReq, *WsMsgResp) {})
	resp := &WsMsgResp{Body: &RespBody{Code: transport.OK}}
	r.Dispatch(&WsMsgReq{Body: &ReqBody{Name: "save.noop"}}, resp)
	if resp.Body.Code != transport.SystemError {
		t.Fatalf("期望默认 SystemError, got=%d", resp.Body.Code)
	}
}

func TestRouter_二进制帧和断开回调(t *testing.T) {
	r := NewRouter(nil)
	conn := newFakeConn()
	r.DispatchBinary(conn, []byte{1})
	if len(conn.pushed) != 1 || conn.pushed[0] != "error" {
		t.Fatalf("期望未注册二进制处理器时推送 error, got=%v", conn.pushed)
	}

	var got []byte
	r.HandleBinary(func(_ WSConn, data []byte) { got = data })
	r.DispatchBinary(conn, []byte{1, 2})
	if len(got) != 2 {
		t.Fatalf("期望二进制处理器收到数据")
	}

	closed := false
	r.OnDisconnect(func(WSConn) { closed = true })
	r.disconnected(conn)
	if !closed {
		t.Fatalf("期望断开回调被调用")
	}
}

func TestBind_按json标签解码(t *testing.T) {
	var dst struct {
		FileName string `json:"file_name"`
		Size     int64  `json:"size"`
	}
	req := &WsMsgReq{Body: &ReqBody{Msg: map[string]any{"file_name": "1836.v2", "size": "42"}}}
	if err := Bind(req, &dst); err != nil {
		t.Fatalf("Bind err=%v", err)
	}
	if dst.FileName != "1836.v2" || dst.Size != 42 {
		t.Fatalf("解码结果不符合预期: %+v", dst)
	}
	if err := Bind(nil, &dst); err != ErrEmptyBody {
		t.Fatalf("期望 ErrEmptyBody, got=%v", err)
	}
}
