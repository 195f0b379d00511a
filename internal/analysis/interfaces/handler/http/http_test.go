package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"Vic2Economy/internal/analysis/actor"
	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/dc"
	"Vic2Economy/internal/analysis/infra/persistence/memory"
	"Vic2Economy/internal/analysis/interfaces/handler"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/economy/economytest"
	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/logx"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rt := actor.NewRuntime(actor.Options{AskTimeout: 2 * time.Second})
	t.Cleanup(rt.Shutdown)
	store := dc.NewReportDC(memory.NewReportRepo(), time.Hour, nil)
	t.Cleanup(func() { _ = store.Close(t.Context()) })

	svc := app.NewService(economytest.Bundle(t), rt, store, logx.Nop(), app.Options{OverseasPenalty: economy.DefaultOverseasPenalty})
	r := gin.New()
	NewHttpHandler(handler.NewAnalysis(svc, nil)).RegisterRoutes(r.Group("/api"))
	return r
}

func do(t *testing.T, r *gin.Engine, req *nethttp.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func uploadMultipart(t *testing.T, r *gin.Engine) string {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "saves/london.v2")
	if err != nil {
		t.Fatalf("CreateFormFile err=%v", err)
	}
	_, _ = fw.Write([]byte(economytest.Save))
	_ = mw.Close()

	req := httptest.NewRequest(nethttp.MethodPost, "/api/saves", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := do(t, r, req)
	if w.Code != nethttp.StatusOK || env.Code != transport.OK {
		t.Fatalf("期望上传成功, status=%d body=%s", w.Code, w.Body.String())
	}
	var status struct {
		SessionID string `json:"session_id"`
		FileName  string `json:"file_name"`
	}
	_ = json.Unmarshal(env.Data, &status)
	if status.SessionID == "" || status.FileName != "london.v2" {
		t.Fatalf("期望返回会话 id 和去掉目录的文件名, got=%+v", status)
	}
	return status.SessionID
}

func TestHttp_上传后查询产出(t *testing.T) {
	r := newEngine(t)
	id := uploadMultipart(t, r)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/saves/"+id+"/production",
		strings.NewReader(`{"countries":["ENG"],"goods":["cotton"]}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := do(t, r, req)
	if w.Code != nethttp.StatusOK || env.Code != transport.OK {
		t.Fatalf("期望查询成功, status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		ReportID string                        `json:"report_id"`
		Output   map[string]map[string]float64 `json:"output"`
	}
	_ = json.Unmarshal(env.Data, &out)
	if out.ReportID == "" || out.Output["ENG"]["cotton"] != economytest.EngCotton {
		t.Fatalf("期望产出 %v 并带报告 id, got=%+v", economytest.EngCotton, out)
	}

	w, env = do(t, r, httptest.NewRequest(nethttp.MethodGet, "/api/reports/"+out.ReportID, nil))
	if w.Code != nethttp.StatusOK || env.Code != transport.OK {
		t.Fatalf("期望能读到报告, body=%s", w.Body.String())
	}
}

func TestHttp_原始请求体上传与导出(t *testing.T) {
	r := newEngine(t)
	req := httptest.NewRequest(nethttp.MethodPost, "/api/saves?name=raw.v2", strings.NewReader(economytest.Save))
	req.Header.Set("Content-Type", "application/octet-stream")
	_, env := do(t, r, req)
	if env.Code != transport.OK {
		t.Fatalf("期望原始请求体上传成功, got=%+v", env)
	}
	var status struct {
		SessionID string `json:"session_id"`
	}
	_ = json.Unmarshal(env.Data, &status)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/api/saves/"+status.SessionID+"/export", nil))
	if w.Code != nethttp.StatusOK || !strings.Contains(w.Body.String(), `"London"`) {
		t.Fatalf("期望导出存档 JSON, status=%d", w.Code)
	}
}

func TestHttp_错误映射为业务码和状态码(t *testing.T) {
	r := newEngine(t)
	id := uploadMultipart(t, r)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"未知会话", nethttp.MethodGet, "/api/saves/nope", "", transport.NotFound},
		{"未知国家", nethttp.MethodGet, "/api/saves/" + id + "/enemies/PRU", "", transport.NotFound},
		{"参数缺失", nethttp.MethodPost, "/api/saves/" + id + "/production", `{"countries":["ENG"]}`, transport.InvalidParam},
		{"请求体非法", nethttp.MethodPost, "/api/saves/" + id + "/popneeds", `{`, transport.InvalidParam},
		{"报告不存在", nethttp.MethodGet, "/api/reports/nope", "", transport.NotFound},
		{"空上传", nethttp.MethodPost, "/api/saves", "", transport.InvalidParam},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		if c.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w, env := do(t, r, req)
		if env.Code != c.code || w.Code != transport.HTTPStatus(c.code) {
			t.Fatalf("%s: 期望业务码 %d, got status=%d body=%s", c.name, c.code, w.Code, w.Body.String())
		}
	}
}

func TestHttp_会话列表关闭与报告列表(t *testing.T) {
	r := newEngine(t)
	id := uploadMultipart(t, r)

	_, env := do(t, r, httptest.NewRequest(nethttp.MethodPost, "/api/saves/"+id+"/population", nil))
	if env.Code != transport.OK {
		t.Fatalf("期望无请求体的人口统计成功, got=%+v", env)
	}
	_, env = do(t, r, httptest.NewRequest(nethttp.MethodGet, "/api/saves/"+id+"/reports", nil))
	var reports []map[string]any
	_ = json.Unmarshal(env.Data, &reports)
	if len(reports) != 1 || reports[0]["kind"] != "population" {
		t.Fatalf("期望 1 份人口报告, got=%v", reports)
	}

	_, env = do(t, r, httptest.NewRequest(nethttp.MethodGet, "/api/saves", nil))
	var list []map[string]any
	_ = json.Unmarshal(env.Data, &list)
	if len(list) != 1 {
		t.Fatalf("期望 1 个会话, got=%v", list)
	}

	_, env = do(t, r, httptest.NewRequest(nethttp.MethodDelete, "/api/saves/"+id, nil))
	if env.Code != transport.OK {
		t.Fatalf("期望关闭成功, got=%+v", env)
	}
	_, env = do(t, r, httptest.NewRequest(nethttp.MethodDelete, "/api/saves/"+id, nil))
	if env.Code != transport.NotFound {
		t.Fatalf("期望重复关闭返回 404, got=%+v", env)
	}
}
