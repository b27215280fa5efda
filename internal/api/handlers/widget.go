package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/remote"
	"github.com/jafarshop/ecostore/internal/render"
	"github.com/jafarshop/ecostore/internal/service"
	"github.com/jafarshop/ecostore/internal/widget"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// wantsJSON reports whether the caller is a script rather than a form post
func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// widgetRespond answers a widget action: scripts get the payload as JSON,
// browsers are sent back to the page they came from.
func widgetRespond(c *gin.Context, payload interface{}) {
	if wantsJSON(c) {
		c.JSON(http.StatusOK, payload)
		return
	}
	redirectBack(c, "/")
}

func widgetError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case apperrors.IsRemoteUnavailable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
	default:
		if _, ok := apperrors.AsNotFound(err); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Widget action failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// HandleWidgetState handles GET /widget/state
func HandleWidgetState(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sf.Widget.State())
	}
}

// HandleWidgetPanel handles GET /widget/panel, the panel markup for
// embedding pages
func HandleWidgetPanel(sf *service.Storefront, views *render.Renderer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		html, err := views.Fragment("widget-panel", sf.Widget.State())
		if err != nil {
			logger.Error("Failed to render widget panel", zap.Error(err))
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

// HandleWidgetOpen handles POST /widget/open
func HandleWidgetOpen(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sf.Widget.Open(c.Request.Context()); err != nil {
			logger.Debug("Popular tasks unavailable", zap.Error(err))
		}
		widgetRespond(c, sf.Widget.State())
	}
}

// HandleWidgetClose handles POST /widget/close
func HandleWidgetClose(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sf.Widget.Close()
		widgetRespond(c, sf.Widget.State())
	}
}

// HandleWidgetTab handles POST /widget/tab/:tab
func HandleWidgetTab(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := sf.Widget.SwitchTab(c.Request.Context(), widget.Tab(c.Param("tab")))
		if err != nil && !apperrors.IsRemoteUnavailable(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		widgetRespond(c, sf.Widget.State())
	}
}

// HandleWidgetTasks handles POST /widget/tasks
func HandleWidgetTasks(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sf.Widget.LoadTasks(c.Request.Context()); err != nil {
			logger.Debug("Popular tasks unavailable", zap.Error(err))
		}
		widgetRespond(c, sf.Widget.State().Tasks)
	}
}

// HandleWidgetToggle handles POST /widget/tasks/:id/toggle
func HandleWidgetToggle(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := sf.Widget.ToggleInstruction(c.Request.Context(), c.Param("id"))
		if err != nil {
			if _, ok := apperrors.AsNotFound(err); ok {
				widgetError(c, logger, err)
				return
			}
			logger.Debug("Instruction unavailable", zap.String("key", c.Param("id")), zap.Error(err))
		}
		widgetRespond(c, view)
	}
}

// HandleWidgetChat handles POST /widget/chat
func HandleWidgetChat(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ChatRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		reply, sent := sf.Widget.SendMessage(c.Request.Context(), req.Message)
		if !sent {
			if wantsJSON(c) {
				c.Status(http.StatusNoContent)
				return
			}
			redirectBack(c, "/")
			return
		}
		widgetRespond(c, reply)
	}
}

// HandleWidgetVoice handles POST /widget/voice
func HandleWidgetVoice(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.VoiceRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}
		text := req.Text
		if text == "" {
			text = req.Message
		}

		reply, sent := sf.Widget.ProcessVoice(c.Request.Context(), text)
		if !sent {
			if wantsJSON(c) {
				c.Status(http.StatusNoContent)
				return
			}
			redirectBack(c, "/")
			return
		}
		widgetRespond(c, reply)
	}
}

// HandleWidgetSearch handles POST /widget/search
func HandleWidgetSearch(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SearchRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		results, err := sf.Widget.Search(c.Request.Context(), req.Query)
		if err != nil {
			widgetError(c, logger, err)
			return
		}
		if results == nil {
			results = []remote.StoredInstruction{}
		}
		widgetRespond(c, gin.H{"results": results})
	}
}

// HandleWidgetSelect handles POST /widget/search/:id
func HandleWidgetSelect(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		instr, err := sf.Widget.SelectResult(c.Param("id"))
		if err != nil {
			widgetError(c, logger, err)
			return
		}
		widgetRespond(c, instr)
	}
}

// HandleWidgetHelp handles GET /widget/help
func HandleWidgetHelp(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := sf.Widget.LoadHelp(c.Request.Context())
		if err != nil {
			widgetError(c, logger, err)
			return
		}
		if tasks == nil {
			tasks = []remote.HelpTask{}
		}
		c.JSON(http.StatusOK, gin.H{"available_tasks": tasks})
	}
}

// HandleWidgetContext handles POST /widget/context, where an embedding page
// reports its URL, viewport and DOM snapshot
func HandleWidgetContext(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reporter, ok := sf.Widget.Host().(widget.Reporter)
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "widget runs in standalone mode"})
			return
		}

		var req service.ContextReport
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		reporter.Report(req.PageContext())
		c.Status(http.StatusNoContent)
	}
}

// HandleWidgetExport handles GET /widget/export/:format/:id. The id
// "current" exports the instruction last shown.
func HandleWidgetExport(sf *service.Storefront, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.Param("format")
		if !remote.ExportFormats[format] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported export format"})
			return
		}

		id := c.Param("id")
		if id == "current" {
			id = ""
		}

		export, err := sf.Widget.Export(c.Request.Context(), format, id)
		if err != nil {
			widgetError(c, logger, err)
			return
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename})
		if disposition == "" {
			disposition = "attachment"
		}
		c.Header("Content-Disposition", disposition)
		c.Data(http.StatusOK, export.ContentType, export.Data)
	}
}
