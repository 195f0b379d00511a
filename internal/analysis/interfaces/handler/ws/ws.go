package ws

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/interfaces/handler"
	"Vic2Economy/internal/analysis/interfaces/handler/dto"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/internal/shared/transport/ws"
)

const (
	connKeyUpload = "upload"

	PushReceived = "save.received"
	PushProgress = "save.progress"
	PushError    = "error"
)

// upload 是一个连接上正在进行的分块上传，同一连接同时只有一个。
type upload struct {
	begin dto.UploadBegin
	buf   bytes.Buffer
}

type WsHandler struct {
	analysis *handler.Analysis
}

func NewWsHandler(a *handler.Analysis) *WsHandler {
	return &WsHandler{analysis: a}
}

func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	save := r.Group("save")
	save.Handle("begin", h.Begin)
	save.Handle("commit", h.Commit)
	save.Handle("abort", h.Abort)
	r.HandleBinary(h.Chunk)
	r.OnDisconnect(func(conn ws.WSConn) { conn.RemoveProperty(connKeyUpload) })

	session := r.Group("session")
	session.Handle("list", h.Sessions)
	session.Handle("status", h.Status)
	session.Handle("close", h.Close)

	query := r.Group("query")
	query.Handle("production", h.Production)
	query.Handle("population", h.Population)
	query.Handle("popneeds", h.PopNeeds)
	query.Handle("enemies", h.Enemies)

	report := r.Group("report")
	report.Handle("get", h.Report)
	report.Handle("list", h.Reports)
}

// Begin 开始一次上传，之后的二进制帧都追加到这份存档。
func (h *WsHandler) Begin(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if wsReq == nil || wsReq.Conn == nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	var req dto.UploadBegin
	if err := ws.Bind(wsReq, &req); err != nil || req.FileName == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	if req.Size > h.analysis.Service.MaxUploadBytes() {
		h.error(ctx, wsResp, app.ErrSaveTooLarge.WithData("bytes", req.Size))
		return
	}
	up := &upload{begin: req}
	if req.Size > 0 {
		up.buf.Grow(int(req.Size))
	}
	wsReq.Conn.SetProperty(connKeyUpload, up)
	h.ok(wsResp, dto.UploadAck{})
}

// Chunk 追加一个二进制分块，超过上限时丢弃整个上传。
func (h *WsHandler) Chunk(conn ws.WSConn, data []byte) {
	up, ok := conn.GetProperty(connKeyUpload).(*upload)
	if !ok {
		conn.Push(PushError, dto.Error(transport.InvalidParam, "没有进行中的上传"))
		return
	}
	if int64(up.buf.Len()+len(data)) > h.analysis.Service.MaxUploadBytes() {
		conn.RemoveProperty(connKeyUpload)
		code, msg := h.analysis.HandleError(transport.NewContext("WS save.chunk"), app.ErrSaveTooLarge.WithData("file", up.begin.FileName))
		conn.Push(PushError, dto.Error(code, msg))
		return
	}
	up.buf.Write(data)
	conn.Push(PushReceived, dto.UploadAck{Received: int64(up.buf.Len())})
}

// Commit 解码已收到的字节，过程中推送 save.progress，响应里带会话状态。
func (h *WsHandler) Commit(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if wsReq == nil || wsReq.Conn == nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	conn := wsReq.Conn
	up, ok := conn.GetProperty(connKeyUpload).(*upload)
	if !ok {
		h.fail(wsResp, transport.InvalidParam, "没有进行中的上传")
		return
	}
	conn.RemoveProperty(connKeyUpload)

	in := app.DecodeInput{
		FileName: up.begin.FileName,
		Size:     int64(up.buf.Len()),
		Reader:   &up.buf,
		Encoding: up.begin.Encoding,
	}
	status, err := h.analysis.Service.Decode(ctx, in, func(p pdx.Progress) {
		conn.Push(PushProgress, p)
	})
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.analysis.Log().Debug("ws upload committed", zap.String("conn_id", conn.ID()), zap.String("session_id", status.SessionID))
	h.ok(wsResp, status)
}

func (h *WsHandler) Abort(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	if wsReq == nil || wsReq.Conn == nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	wsReq.Conn.RemoveProperty(connKeyUpload)
	h.ok(wsResp, nil)
}

func (h *WsHandler) Sessions(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	list, err := h.analysis.Service.Sessions(ctx)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, list)
}

func (h *WsHandler) Status(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	status, err := h.analysis.Service.Status(ctx, id)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, status)
}

func (h *WsHandler) Close(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	if err := h.analysis.Service.CloseSession(ctx, id); err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, nil)
}

func (h *WsHandler) Production(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	var req app.ProductionInput
	if err := ws.Bind(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.Production(ctx, id, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, out)
}

func (h *WsHandler) Population(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	var req app.PopulationInput
	if err := ws.Bind(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.Population(ctx, id, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, out)
}

func (h *WsHandler) PopNeeds(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	var req economy.PopNeedsQuery
	if err := ws.Bind(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.PopNeeds(ctx, id, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, out)
}

func (h *WsHandler) Enemies(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	var req app.EnemiesInput
	if err := ws.Bind(wsReq, &req); err != nil {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.Enemies(ctx, id, req)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, out)
}

func (h *WsHandler) Report(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req dto.ReportQuery
	if err := ws.Bind(wsReq, &req); err != nil || req.ReportID == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	r, err := h.analysis.Service.Report(ctx, req.ReportID)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, r)
}

func (h *WsHandler) Reports(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	id, ok := h.sessionID(ctx, wsReq, wsResp)
	if !ok {
		return
	}
	list, err := h.analysis.Service.Reports(ctx, id)
	if err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, list)
}

func (h *WsHandler) sessionID(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) (string, bool) {
	var q dto.SessionQuery
	if err := ws.Bind(wsReq, &q); err != nil || q.SessionID == "" {
		h.fail(wsResp, transport.InvalidParam, "缺少 session_id")
		return "", false
	}
	transport.AddField(ctx, zap.String("session_id", q.SessionID))
	return q.SessionID, true
}

func (h *WsHandler) ok(resp *ws.WsMsgResp, data any) {
	resp.Reply(transport.OK, data)
}

func (h *WsHandler) fail(resp *ws.WsMsgResp, code int, msg string) {
	if msg == "" {
		resp.Reply(code, nil)
		return
	}
	resp.Reply(code, msg)
}

func (h *WsHandler) error(ctx context.Context, resp *ws.WsMsgResp, err error) {
	code, msg := h.analysis.HandleError(ctx, err)
	h.fail(resp, code, msg)
}
