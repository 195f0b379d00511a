package http

import (
	"context"
	nethttp "net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Vic2Economy/internal/analysis/app"
	"Vic2Economy/internal/analysis/interfaces/handler"
	"Vic2Economy/internal/analysis/interfaces/handler/dto"
	"Vic2Economy/internal/economy"
	"Vic2Economy/internal/shared/transport"
)

type HttpHandler struct {
	analysis *handler.Analysis
}

func NewHttpHandler(a *handler.Analysis) *HttpHandler {
	return &HttpHandler{analysis: a}
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	saves := group.Group("/saves", sessionField)
	saves.POST("", h.Upload)
	saves.GET("", h.Sessions)
	saves.GET("/:id", h.Status)
	saves.DELETE("/:id", h.Close)
	saves.POST("/:id/production", h.Production)
	saves.POST("/:id/population", h.Population)
	saves.POST("/:id/popneeds", h.PopNeeds)
	saves.GET("/:id/enemies/:tag", h.Enemies)
	saves.GET("/:id/export", h.Export)
	saves.GET("/:id/reports", h.Reports)

	group.GET("/reports/:id", h.Report)
}

// sessionField 把路径里的会话 id 记到 access 日志。
func sessionField(c *gin.Context) {
	if id := c.Param("id"); id != "" {
		transport.AddField(c.Request.Context(), zap.String("session_id", id))
	}
	c.Next()
}

// Upload 接收 multipart 的 file 字段，或者整个请求体就是存档（文件名取 ?name=）。
func (h *HttpHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	in := app.DecodeInput{Encoding: c.Query("encoding")}
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.fail(c, transport.InvalidParam, "存档读取失败")
			return
		}
		defer f.Close()
		in.FileName, in.Size, in.Reader = filepath.Base(fh.Filename), fh.Size, f
	} else {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			h.fail(c, transport.InvalidParam, "未上传存档")
			return
		}
		in.FileName = c.DefaultQuery("name", "upload.v2")
		in.Size = max(c.Request.ContentLength, 0)
		in.Reader = c.Request.Body
	}

	status, err := h.analysis.Service.Decode(ctx, in, nil)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, status)
}

func (h *HttpHandler) Sessions(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.analysis.Service.Sessions(ctx)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, list)
}

func (h *HttpHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	status, err := h.analysis.Service.Status(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, status)
}

func (h *HttpHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.analysis.Service.CloseSession(ctx, c.Param("id")); err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, nil)
}

func (h *HttpHandler) Production(c *gin.Context) {
	ctx := c.Request.Context()

	var req app.ProductionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.Production(ctx, c.Param("id"), req)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, out)
}

func (h *HttpHandler) Population(c *gin.Context) {
	ctx := c.Request.Context()

	var req app.PopulationInput
	// 请求体可省略，表示统计全部省份
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, transport.InvalidParam, "参数有误")
			return
		}
	}
	out, err := h.analysis.Service.Population(ctx, c.Param("id"), req)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, out)
}

func (h *HttpHandler) PopNeeds(c *gin.Context) {
	ctx := c.Request.Context()

	var req economy.PopNeedsQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	out, err := h.analysis.Service.PopNeeds(ctx, c.Param("id"), req)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, out)
}

func (h *HttpHandler) Enemies(c *gin.Context) {
	ctx := c.Request.Context()
	out, err := h.analysis.Service.Enemies(ctx, c.Param("id"), app.EnemiesInput{Country: c.Param("tag")})
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, out)
}

// Export 直接返回存档树的 JSON，不包统一响应体。
func (h *HttpHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := h.analysis.Service.Export(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("id")+`.json"`)
	c.Data(nethttp.StatusOK, "application/json; charset=utf-8", raw)
}

func (h *HttpHandler) Reports(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.analysis.Service.Reports(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, list)
}

func (h *HttpHandler) Report(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.analysis.Service.Report(ctx, c.Param("id"))
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	h.ok(c, r)
}

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, dto.Success(transport.OK, data))
}

// fail 的 HTTP 状态跟随业务码，响应体里仍带 code。
func (h *HttpHandler) fail(c *gin.Context, code int, msg string) {
	c.JSON(transport.HTTPStatus(code), dto.Error(code, msg))
}

func (h *HttpHandler) error(ctx context.Context, c *gin.Context, err error) {
	code, msg := h.analysis.HandleError(ctx, err)
	h.fail(c, code, msg)
}
