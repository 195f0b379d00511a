package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/modules/kit/logx"
)

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewHttpServer_Healthz带CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(serverconfig.HTTPServerConfig{Port: 8080}, logx.Nop())

	w := serve(s, nethttp.MethodGet, "/healthz")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("期望带 CORS 头")
	}
	if s.Addr() != "0.0.0.0:8080" {
		t.Fatalf("期望默认监听所有地址, got=%s", s.Addr())
	}
	if s.srv.ReadTimeout != defaultUploadTimeout {
		t.Fatalf("期望默认上传超时, got=%v", s.srv.ReadTimeout)
	}
}

func TestNewHttpServer_预检请求直接返回(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(serverconfig.HTTPServerConfig{UploadTimeout: time.Minute}, logx.Nop())

	if w := serve(s, nethttp.MethodOptions, "/api/saves"); w.Code != nethttp.StatusNoContent {
		t.Fatalf("期望 OPTIONS 返回 204, got=%d", w.Code)
	}
	if s.srv.WriteTimeout != time.Minute {
		t.Fatalf("期望使用配置的超时, got=%v", s.srv.WriteTimeout)
	}
}

func TestServer_API分组中间件和Mount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(serverconfig.HTTPServerConfig{}, logx.Nop())

	deny := func(c *gin.Context) { c.AbortWithStatus(nethttp.StatusUnauthorized) }
	s.API("/api", deny).GET("/saves", func(c *gin.Context) { c.Status(nethttp.StatusOK) })
	s.Mount("/ws", nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTeapot)
	}))

	if w := serve(s, nethttp.MethodGet, "/api/saves"); w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("期望分组中间件生效, got=%d", w.Code)
	}
	if w := serve(s, nethttp.MethodGet, "/ws"); w.Code != nethttp.StatusTeapot {
		t.Fatalf("期望 Mount 的 handler 被调用, got=%d", w.Code)
	}
	if w := serve(s, nethttp.MethodGet, "/healthz"); w.Code != nethttp.StatusOK {
		t.Fatalf("分组中间件不应影响 /healthz, got=%d", w.Code)
	}
}
