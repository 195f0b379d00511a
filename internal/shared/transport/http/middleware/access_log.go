package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"Vic2Economy/internal/shared/transport"
	"Vic2Economy/modules/kit/logx"
	"Vic2Economy/modules/kit/tracex"
)

const maxCapturedBody = 4 << 10

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

// 只保留响应头部的一段用于提取业务码，导出大文件时不把整个响应留在内存里。
func (w *bodyCaptureWriter) capture(data []byte) {
	if room := maxCapturedBody - w.body.Len(); room > 0 {
		if len(data) > room {
			data = data[:room]
		}
		_, _ = w.body.Write(data)
	}
}

func (w *bodyCaptureWriter) Write(data []byte) (int, error) {
	w.capture(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

// AccessLog 为每个请求写一条访问日志。业务码优先取响应体里的 `code`，没有时按 HTTP 状态推断。
// 上游带了 X-Trace-Id 时沿用，并在响应头回写。
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := transport.NewContextWithParent(upstreamTrace(c), c.Request.Method+" "+routeOf(c))
		c.Request = c.Request.WithContext(ctx)
		if tid, ok := tracex.TraceIDFrom(ctx); ok {
			c.Header(traceHeader, tid)
		}
		bw := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		c.Next()

		transport.SetBizCode(ctx, bizCodeOf(bw.body.Bytes(), c.Writer.Status()))
		transport.AddField(ctx, zap.Int("status", c.Writer.Status()), zap.Int("bytes", c.Writer.Size()))
		transport.WriteAccessLog(ctx, log)
	}
}

const traceHeader = "X-Trace-Id"

func upstreamTrace(c *gin.Context) context.Context {
	if up := c.GetHeader(traceHeader); up != "" {
		return tracex.WithTraceID(c.Request.Context(), up)
	}
	return c.Request.Context()
}

// routeOf 取注册的路由模板，未匹配到路由时用原始路径。
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}

func bizCodeOf(body []byte, status int) transport.BizCode {
	if code, ok := parseBizCode(body); ok {
		return transport.BizCode(code)
	}
	if status >= http.StatusBadRequest {
		return transport.BizCode(status)
	}
	return transport.BizCode(transport.OK)
}

// parseBizCode 按常见响应体格式解析：{"code":123, ...}。
func parseBizCode(body []byte) (int, bool) {
	if len(body) == 0 {
		return 0, false
	}
	code := gjson.GetBytes(body, "code")
	if code.Type != gjson.Number {
		return 0, false
	}
	return int(code.Int()), true
}
