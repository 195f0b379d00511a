package interfaces

import (
	"github.com/gin-gonic/gin"
	gogrpc "google.golang.org/grpc"

	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/interfaces/handler"
	handlergrpc "Vic2Economy/internal/analysis/interfaces/handler/grpc"
	"Vic2Economy/internal/analysis/interfaces/handler/http"
	handlerws "Vic2Economy/internal/analysis/interfaces/handler/ws"
	transporthttp "Vic2Economy/internal/shared/transport/http"
	"Vic2Economy/internal/shared/transport/ws"
	"Vic2Economy/modules/kit/logx"
)

// Module 把同一个 app.Service 挂到 HTTP、WS、gRPC 三个入口。
type Module struct {
	wsHandler   *handlerws.WsHandler
	httpHandler *http.HttpHandler
	grpcHandler *handlergrpc.GrpcHandler
}

func New(s *app.Service, l logx.Logger) *Module {
	analysis := handler.NewAnalysis(s, l)
	return &Module{
		wsHandler:   handlerws.NewWsHandler(analysis),
		httpHandler: http.NewHttpHandler(analysis),
		grpcHandler: handlergrpc.NewGrpcHandler(analysis),
	}
}

func (m *Module) WsRegister(r *ws.Router) {
	m.wsHandler.RegisterRoutes(r)
}

func (m *Module) HttpRegister(g *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(g)
}

func (m *Module) GrpcRegister(s gogrpc.ServiceRegistrar) {
	m.grpcHandler.Register(s)
}

var _ ws.Registrar = (*Module)(nil)
var _ transporthttp.Registrar = (*Module)(nil)
