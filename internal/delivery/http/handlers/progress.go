package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProgressHandler struct {
	progress ProgressService
}

func NewProgressHandler(progress ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /progress/summary
func (h *ProgressHandler) Summary(c *gin.Context) {
	sum, err := h.progress.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum})
}

// GET /progress/by-kind
func (h *ProgressHandler) ByKind(c *gin.Context) {
	kinds, err := h.progress.ByKind(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kinds": kinds})
}

// GET /progress/activity?days=30
func (h *ProgressHandler) Activity(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	act, err := h.progress.Activity(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": act})
}

// GET /progress/forecast?days=14
func (h *ProgressHandler) Forecast(c *gin.Context) {
	days, err := queryInt(c, "days")
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}

	fc, err := h.progress.Forecast(c.Request.Context(), middleware.UserID(c), days)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": fc})
}

// GET /progress/export
func (h *ProgressHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.progress.Export(c.Request.Context(), middleware.UserID(c), &buf); err != nil {
		apierr.Respond(c, err)
		return
	}

	name := fmt.Sprintf("n1-progress-%s.xlsx", time.Now().UTC().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
