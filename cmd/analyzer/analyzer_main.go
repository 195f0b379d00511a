package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/actor"
	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/dc"
	"Vic2Economy/internal/analysis/infra/persistence"
	"Vic2Economy/internal/analysis/interfaces"
	"Vic2Economy/internal/refdata"
	"Vic2Economy/internal/shared/logs"
	"Vic2Economy/internal/shared/serverconfig"
	"Vic2Economy/internal/shared/transport/grpc"
	transporthttp "Vic2Economy/internal/shared/transport/http"
	"Vic2Economy/internal/shared/transport/http/middleware"
	"Vic2Economy/internal/shared/transport/ws"
)

// ws 单帧上限，上传的分块不应超过它
const wsFrameLimit = 8 << 20

func main() {
	cfgPath := pflag.String("config", "", "配置文件路径，默认向上查找 configs/conf.yml")
	pflag.Parse()

	conf, err := serverconfig.Load(*cfgPath, func(next *serverconfig.Config, err error) {
		if err != nil {
			logs.Warn("配置热更新失败，保留当前配置", zap.Error(err))
			return
		}
		logs.Info("配置已更新，新的查询参数对新建服务生效", zap.Any("query", next.Query))
	})
	if err != nil {
		panic(err)
	}
	if _, err := logs.Init("analyzer", conf.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	logs.Info("conf", zap.Any("conf", conf))
	baseLogger := logs.Port()

	bundle, err := refdata.Load(conf.Bundle.Manifest)
	if err != nil {
		logs.Fatal("load rule bundle failed", zap.String("manifest", conf.Bundle.Manifest), zap.Error(err))
	}
	logs.Info("rule bundle loaded", zap.Int("datasets", len(bundle.Datasets())))

	repo, closeRepo, err := persistence.OpenReportRepo(conf.Storage, baseLogger)
	if err != nil {
		logs.Fatal("open report storage failed", zap.String("driver", conf.Storage.Driver), zap.Error(err))
	}
	defer closeRepo()
	reports := dc.NewReportDC(repo, conf.Storage.FlushEvery, baseLogger)

	runtime := actor.NewRuntime(actor.Options{
		AskTimeout:  conf.Query.AskTimeout,
		MaxSessions: conf.Query.MaxSessions,
		IdleTimeout: conf.Query.SessionIdle,
	})

	service := app.NewService(bundle, runtime, reports, baseLogger, app.Options{
		Decode:          conf.Decode,
		OverseasPenalty: conf.Query.Penalty(),
	})
	module := interfaces.New(service, baseLogger)

	var authMW []gin.HandlerFunc
	if conf.HTTPServer.NeedAuth {
		authMW = append(authMW, middleware.Auth("analysis"))
	}
	httpServer := transporthttp.NewHttpServer(conf.HTTPServer, baseLogger)
	apiGroup := httpServer.API("/api", authMW...)
	httpModules := []transporthttp.Registrar{
		module,
	}
	for _, m := range httpModules {
		m.HttpRegister(apiGroup)
	}

	wsRouter := ws.NewRouter(baseLogger)
	wsModules := []ws.Registrar{
		module,
	}
	for _, m := range wsModules {
		m.WsRegister(wsRouter)
	}
	httpServer.Mount("/ws", ws.NewServer(wsRouter, baseLogger, wsFrameLimit), authMW...)

	grpcServer := grpc.NewServer(baseLogger)
	module.GrpcRegister(grpcServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logs.Info("http server listening", zap.String("addr", httpServer.Addr()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- fmt.Errorf("http server start failed: %w", err)
		}
	}()
	if conf.GRPCServer.Port > 0 {
		grpcAddr := fmt.Sprintf("%s:%d", hostOr(conf.GRPCServer.Host), conf.GRPCServer.Port)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			logs.Fatal("grpc listen failed", zap.String("addr", grpcAddr), zap.Error(err))
		}
		go func() {
			logs.Info("grpc server listening", zap.String("addr", grpcAddr))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server stopped: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		logs.Error("服务异常退出", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	runtime.Shutdown()
	// 会话关闭后再刷报告，保证最后一批查询结果落库
	if err := reports.Close(shutdownCtx); err != nil {
		logs.Error("flush reports failed", zap.Error(err), zap.Int("pending", reports.Pending()))
	}
}

func hostOr(host string) string {
	if host == "" {
		return "0.0.0.0"
	}
	return host
}
