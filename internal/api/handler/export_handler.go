package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/service"
	"wakeup-schedule/pkg/response"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportICS 导出 iCalendar
// GET /api/v1/users/:user_id/schedule/export.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportICS(c.Request.Context(), userID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

// ExportWeekXLSX 导出单周 Excel
// GET /api/v1/users/:user_id/schedule/export.xlsx?week=N
func (h *ExportHandler) ExportWeekXLSX(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	week := 0
	if raw := c.Query("week"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 60 {
			response.BadRequest(c, 10001, "week 参数无效")
			return
		}
		week = n
	}

	buf, filename, err := h.exportSvc.ExportWeekXLSX(c.Request.Context(), userID, week)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

func setDownloadHeaders(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoCourses):
		response.NotFound(c, 14001, "没有可导出的课程")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleScheduleError(c, err)
	}
}
