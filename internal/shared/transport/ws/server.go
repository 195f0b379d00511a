package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"Vic2Economy/modules/kit/logx"
)

type Server struct {
	router    *Router
	log       logx.Logger
	readLimit int64
	upgrader  websocket.Upgrader
}

// NewServer 创建 ws 入口，readLimit 是单帧最大字节数（<=0 不限制）。
func NewServer(r *Router, l logx.Logger, readLimit int64) *Server {
	if l == nil {
		l = logx.Nop()
	}
	return &Server{
		router:    r,
		log:       l,
		readLimit: readLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 16 << 10,
			// 允许所有CORS跨域请求
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Error("websocket upgrade error", zap.Error(err))
		return
	}
	if s.readLimit > 0 {
		wsConn.SetReadLimit(s.readLimit)
	}

	wsServer := NewWsServer(wsConn, s.log)
	wsServer.Router(s.router)
	s.log.Info("websocket upgrade success", zap.String("conn_id", wsServer.ID()), zap.String("addr", wsServer.Addr()))
	wsServer.handshake()
	wsServer.Run()
}
