package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/service"
	"wakeup-schedule/pkg/response"
)

// StatusHandler 上课状态 HTTP 处理器
type StatusHandler struct {
	statusSvc service.StatusService
}

// NewStatusHandler 创建 StatusHandler
func NewStatusHandler(statusSvc service.StatusService) *StatusHandler {
	return &StatusHandler{statusSvc: statusSvc}
}

// GetStatus 查询用户当前状态
// GET /api/v1/users/:user_id/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	result, err := h.statusSvc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		handleStatusError(c, err)
		return
	}

	response.OK(c, result)
}

// SetSkip 开启 / 关闭翘课模式
// PUT /api/v1/users/:user_id/skip
func (h *StatusHandler) SetSkip(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.SetSkipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statusSvc.SetSkip(c.Request.Context(), userID, *req.Skipping)
	if err != nil {
		handleStatusError(c, err)
		return
	}

	response.OK(c, result)
}

// BatchStatus 按用户 ID 列表查询群状态
// POST /api/v1/status/batch?format=text
func (h *StatusHandler) BatchStatus(c *gin.Context) {
	var req dto.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statusSvc.GetGroupStatusByIDs(c.Request.Context(), req.UserIDs, wantText(c))
	if err != nil {
		handleStatusError(c, err)
		return
	}

	response.OK(c, result)
}

func wantText(c *gin.Context) bool {
	return c.Query("format") == "text"
}

func handleStatusError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSkipAlreadyOn):
		response.Conflict(c, 13001, err.Error())
	case errors.Is(err, service.ErrSkipAlreadyOff):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrGroupEmpty):
		response.NotFound(c, 13003, err.Error())
	case errors.Is(err, service.ErrGroupDirectory):
		response.ErrorWithDetails(c, http.StatusBadGateway, 13004, "获取群成员失败", err.Error())
	case errors.Is(err, service.ErrSkipSaveFailed):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 13005, "翘课状态保存失败，请稍后再试", err.Error())
	default:
		handleScheduleError(c, err)
	}
}
