package http

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/internal/shared/transport/http/middleware"
	"Vic2Economy/modules/kit/logx"
)

const defaultUploadTimeout = 5 * time.Minute

// Registrar 是业务模块挂 HTTP 路由的入口。
type Registrar interface {
	HttpRegister(g *gin.RouterGroup)
}

type Server struct {
	engine *gin.Engine
	srv    *nethttp.Server
}

// NewHttpServer 装好 recovery、CORS、访问日志和 /healthz。
// 读写超时按存档上传设置，ReadHeaderTimeout 仍然很短。
func NewHttpServer(conf serverconfig.HTTPServerConfig, logger logx.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Cors(), middleware.AccessLog(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	timeout := conf.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	host := conf.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return &Server{
		engine: engine,
		srv: &nethttp.Server{
			Addr:              fmt.Sprintf("%s:%d", host, conf.Port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.srv.Addr }

// API 返回挂业务路由的分组，mw 只作用于这个分组。
func (s *Server) API(prefix string, mw ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(prefix, mw...)
}

// Mount 把一个普通 http.Handler（例如 ws 升级入口）挂到 GET path 上。
func (s *Server) Mount(path string, h nethttp.Handler, mw ...gin.HandlerFunc) {
	s.engine.GET(path, append(mw, gin.WrapH(h))...)
}

// Start 阻塞直到出错或 Shutdown，关闭时返回 net/http.ErrServerClosed。
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}
