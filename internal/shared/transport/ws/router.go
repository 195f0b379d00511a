package ws

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/logx"
)

// Registrar 是业务模块挂 ws 路由的入口。
type Registrar interface {
	WsRegister(r *Router)
}

type HandlerFunc func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp)

// BinaryHandlerFunc 处理二进制帧，没有请求/响应配对，结果通过 conn.Push 推送。
type BinaryHandlerFunc func(conn WSConn, data []byte)

// Group 只是给路由名加前缀，处理器都登记在 Router 上。
type Group struct {
	router *Router
	prefix string
}

func (g *Group) Handle(name string, h HandlerFunc) {
	g.router.routes[g.prefix+"."+name] = h
}

type Router struct {
	groups       map[string]bool
	routes       map[string]HandlerFunc
	binary       BinaryHandlerFunc
	onDisconnect []func(conn WSConn)
	log          logx.Logger
}

func NewRouter(l logx.Logger) *Router {
	if l == nil {
		l = logx.Nop()
	}
	return &Router{
		groups: make(map[string]bool),
		routes: make(map[string]HandlerFunc),
		log:    l,
	}
}

func (r *Router) Group(prefix string) *Group {
	r.groups[prefix] = true
	return &Group{router: r, prefix: prefix}
}

func (r *Router) HandleBinary(h BinaryHandlerFunc) {
	r.binary = h
}

// OnDisconnect 注册连接断开回调，用来清理连接级状态（未完成的上传）。
func (r *Router) OnDisconnect(fn func(conn WSConn)) {
	r.onDisconnect = append(r.onDisconnect, fn)
}

// Dispatch 按 req.Body.Name 找处理器，每次调用写一条 access 日志。
// 响应先置为系统错误，handler 漏设业务码时不会记成成功。
func (r *Router) Dispatch(req *WsMsgReq, resp *WsMsgResp) {
	name := "unknown"
	if req != nil && req.Body != nil {
		name = req.Body.Name
	}
	ctx := transport.NewContext("WS " + name)
	if req != nil && req.Conn != nil {
		transport.AddField(ctx, zap.String("conn_id", req.Conn.ID()))
	}
	resp.Reply(transport.SystemError, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Msg = nil
	}

	if h, code, msg := r.resolve(req, resp); h == nil {
		resp.Reply(code, msg)
		transport.SetErrorReason(ctx, msg)
	} else {
		h(ctx, req, resp)
	}

	code := transport.SystemError
	if resp != nil && resp.Body != nil {
		code = resp.Body.Code
	}
	transport.SetBizCode(ctx, transport.BizCode(code))
	transport.WriteAccessLog(ctx, r.log)
}

// resolve 返回处理器，找不到时返回业务码和提示。
func (r *Router) resolve(req *WsMsgReq, resp *WsMsgResp) (HandlerFunc, int, string) {
	if req == nil || req.Body == nil || resp == nil || resp.Body == nil {
		return nil, transport.InvalidParam, "参数有误"
	}
	prefix, name, ok := strings.Cut(req.Body.Name, ".")
	if !ok || prefix == "" || name == "" || strings.Contains(name, ".") {
		return nil, transport.InvalidParam, "路由参数有误"
	}
	if !r.groups[prefix] {
		return nil, transport.NotFound, "路由组不存在"
	}
	h := r.routes[req.Body.Name]
	if h == nil {
		return nil, transport.NotFound, "路由处理器不存在"
	}
	return h, transport.OK, ""
}

func (r *Router) DispatchBinary(conn WSConn, data []byte) {
	if r.binary == nil {
		conn.Push("error", map[string]any{"code": transport.InvalidParam, "msg": "不接受二进制帧"})
		return
	}
	r.binary(conn, data)
}

func (r *Router) disconnected(conn WSConn) {
	for _, fn := range r.onDisconnect {
		fn(conn)
	}
}
