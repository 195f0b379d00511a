package ws

import (
	"context"
	"testing"
	"time"

	"Vic2Economy/internal/analysis/actor"
	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/dc"
	"Vic2Economy/internal/analysis/entity"
	"Vic2Economy/internal/analysis/infra/persistence/memory"
	"Vic2Economy/internal/analysis/interfaces/handler"
	"Vic2Economy/internal/analysis/interfaces/handler/dto"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/economy/economytest"
	"Vic2Economy/internal/pdx"
	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/internal/shared/transport/ws"
	"Vic2Economy/modules/kit/logx"
)

type pushed struct {
	name string
	data any
}

type fakeConn struct {
	props  map[string]any
	pushes []pushed
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
func (f *fakeConn) Push(name string, data any)  { f.pushes = append(f.pushes, pushed{name, data}) }
func (f *fakeConn) Close()                      {}
func (f *fakeConn) Done() <-chan struct{}       { return f.done }

func (f *fakeConn) count(name string) int {
	n := 0
	for _, p := range f.pushes {
		if p.name == name {
			n++
		}
	}
	return n
}

func newRouter(t *testing.T, maxMB int) *ws.Router {
	t.Helper()
	rt := actor.NewRuntime(actor.Options{AskTimeout: 2 * time.Second})
	t.Cleanup(rt.Shutdown)
	store := dc.NewReportDC(memory.NewReportRepo(), time.Hour, nil)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	svc := app.NewService(economytest.Bundle(t), rt, store, logx.Nop(), app.Options{
		Decode:          serverconfig.DecodeConfig{MaxUploadMB: maxMB},
		OverseasPenalty: economy.DefaultOverseasPenalty,
	})
	r := ws.NewRouter(nil)
	NewWsHandler(handler.NewAnalysis(svc, nil)).RegisterRoutes(r)
	return r
}

func call(r *ws.Router, conn ws.WSConn, name string, msg any) *ws.RespBody {
	resp := &ws.WsMsgResp{Body: &ws.RespBody{Seq: 1, Name: name}}
	r.Dispatch(&ws.WsMsgReq{Body: &ws.ReqBody{Seq: 1, Name: name, Msg: msg}, Conn: conn}, resp)
	return resp.Body
}

func uploadSave(t *testing.T, r *ws.Router, conn *fakeConn) string {
	t.Helper()
	if body := call(r, conn, "save.begin", map[string]any{"file_name": "london.v2"}); body.Code != transport.OK {
		t.Fatalf("期望 begin 成功, got=%+v", body)
	}
	data := []byte(economytest.Save)
	half := len(data) / 2
	r.DispatchBinary(conn, data[:half])
	r.DispatchBinary(conn, data[half:])
	if conn.count(PushReceived) != 2 {
		t.Fatalf("期望每个分块回一次 received, got=%v", conn.pushes)
	}
	last := conn.pushes[len(conn.pushes)-1].data.(dto.UploadAck)
	if last.Received != int64(len(data)) {
		t.Fatalf("期望累计收到 %d 字节, got=%d", len(data), last.Received)
	}

	body := call(r, conn, "save.commit", nil)
	if body.Code != transport.OK {
		t.Fatalf("期望 commit 成功, got=%+v", body)
	}
	status := body.Msg.(entity.LoadStatus)
	if status.SessionID == "" || status.FileName != "london.v2" {
		t.Fatalf("期望返回会话状态, got=%+v", status)
	}
	return status.SessionID
}

func TestWs_分块上传推送进度并可查询(t *testing.T) {
	r := newRouter(t, 0)
	conn := newFakeConn()
	id := uploadSave(t, r, conn)

	if conn.count(PushProgress) == 0 {
		t.Fatalf("期望解码期间推送进度")
	}
	var sawParse bool
	for _, p := range conn.pushes {
		if pr, ok := p.data.(pdx.Progress); ok && pr.Phase == pdx.PhaseParse {
			sawParse = true
		}
	}
	if !sawParse {
		t.Fatalf("期望进度包含解析阶段")
	}
	if _, ok := conn.props[connKeyUpload]; ok {
		t.Fatalf("期望 commit 后清掉上传状态")
	}

	body := call(r, conn, "query.production", map[string]any{
		"session_id": id,
		"countries":  []any{"ENG"},
		"goods":      []any{"cotton"},
	})
	if body.Code != transport.OK {
		t.Fatalf("期望产出查询成功, got=%+v", body)
	}
	out := body.Msg.(*app.ProductionOutput)
	if out.Output["ENG"]["cotton"] != economytest.EngCotton {
		t.Fatalf("期望棉花产出 %v, got=%v", economytest.EngCotton, out.Output)
	}

	body = call(r, conn, "report.get", map[string]any{"report_id": out.ReportID})
	if body.Code != transport.OK {
		t.Fatalf("期望能取回报告, got=%+v", body)
	}

	body = call(r, conn, "query.enemies", map[string]any{"session_id": id, "country": "FRA"})
	if got := body.Msg.(*app.EnemiesOutput).Enemies; len(got) != 1 || got[0] != "ENG" {
		t.Fatalf("期望法国的敌人是英国, got=%v", got)
	}

	body = call(r, conn, "query.popneeds", map[string]any{"session_id": id, "good": "grain", "plurality": "10"})
	if body.Code != transport.OK {
		t.Fatalf("期望数字字符串也能绑定, got=%+v", body)
	}

	body = call(r, conn, "report.list", map[string]any{"session_id": id})
	if got := body.Msg.([]*entity.Report); len(got) != 3 {
		t.Fatalf("期望 3 份报告, got=%d", len(got))
	}
}

func TestWs_上传异常(t *testing.T) {
	r := newRouter(t, 1)
	conn := newFakeConn()

	r.DispatchBinary(conn, []byte("x"))
	if conn.count(PushError) != 1 {
		t.Fatalf("期望没有 begin 的分块被拒绝, got=%v", conn.pushes)
	}

	if body := call(r, conn, "save.commit", nil); body.Code != transport.InvalidParam {
		t.Fatalf("期望没有上传时 commit 失败, got=%+v", body)
	}

	if body := call(r, conn, "save.begin", map[string]any{"file_name": "big.v2", "size": 2 << 20}); body.Code != transport.TooLarge {
		t.Fatalf("期望声明超限直接拒绝, got=%+v", body)
	}

	call(r, conn, "save.begin", map[string]any{"file_name": "big.v2"})
	r.DispatchBinary(conn, make([]byte, 1<<20+1))
	if conn.count(PushError) != 2 {
		t.Fatalf("期望超限分块推送错误, got=%v", conn.pushes)
	}
	if _, ok := conn.props[connKeyUpload]; ok {
		t.Fatalf("期望超限后丢弃上传")
	}

	call(r, conn, "save.begin", map[string]any{"file_name": "a.v2"})
	if body := call(r, conn, "save.abort", nil); body.Code != transport.OK {
		t.Fatalf("期望 abort 成功, got=%+v", body)
	}
	if _, ok := conn.props[connKeyUpload]; ok {
		t.Fatalf("期望 abort 后清掉上传状态")
	}
}

func TestWs_会话查询参数与错误码(t *testing.T) {
	r := newRouter(t, 0)
	conn := newFakeConn()

	if body := call(r, conn, "session.status", map[string]any{}); body.Code != transport.InvalidParam {
		t.Fatalf("期望缺少 session_id 为参数错误, got=%+v", body)
	}
	if body := call(r, conn, "session.status", map[string]any{"session_id": "nope"}); body.Code != transport.NotFound {
		t.Fatalf("期望未知会话为 404, got=%+v", body)
	}

	id := uploadSave(t, r, conn)
	body := call(r, conn, "session.list", nil)
	if got := body.Msg.([]entity.LoadStatus); len(got) != 1 || got[0].SessionID != id {
		t.Fatalf("期望列出刚打开的会话, got=%v", got)
	}
	if body := call(r, conn, "query.population", map[string]any{"session_id": id}); body.Code != transport.OK {
		t.Fatalf("期望人口统计成功, got=%+v", body)
	}
	if body := call(r, conn, "session.close", map[string]any{"session_id": id}); body.Code != transport.OK {
		t.Fatalf("期望关闭成功, got=%+v", body)
	}
	if body := call(r, conn, "query.population", map[string]any{"session_id": id}); body.Code != transport.NotFound {
		t.Fatalf("期望关闭后查询为 404, got=%+v", body)
	}
}
