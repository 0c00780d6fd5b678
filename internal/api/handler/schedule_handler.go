package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/service"
	pkgerrors "wakeup-schedule/pkg/errors"
	"wakeup-schedule/pkg/response"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// ImportSchedule 通过分享口令导入课表
// POST /api/v1/users/:user_id/schedule/import
func (h *ScheduleHandler) ImportSchedule(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.ImportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.Import(c.Request.Context(), userID, &req)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// ClearSchedule 清除课表
// DELETE /api/v1/users/:user_id/schedule
func (h *ScheduleHandler) ClearSchedule(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Clear(c.Request.Context(), userID); err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetInfo 课表概况
// GET /api/v1/users/:user_id/schedule/info
func (h *ScheduleHandler) GetInfo(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	info, err := h.scheduleSvc.Info(c.Request.Context(), userID)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, info)
}

// ListDay 查询某日课程
// GET /api/v1/users/:user_id/schedule/day?offset=0|1 或 ?week=N&day=D
func (h *ScheduleHandler) ListDay(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var q dto.DayScheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.ListDay(c.Request.Context(), userID, &q)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// SetNickname 设置昵称
// PUT /api/v1/users/:user_id/profile/nickname
func (h *ScheduleHandler) SetNickname(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.SetNicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.SetNickname(c.Request.Context(), userID, req.Nickname)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// SetSignature 设置个性签名
// PUT /api/v1/users/:user_id/profile/signature
func (h *ScheduleHandler) SetSignature(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.SetSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.SetSignature(c.Request.Context(), userID, req.Signature)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// handleScheduleError 课表相关错误映射，其他模块的 Handler 在兜底分支复用
func handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotConfigured):
		// 读取失败与记录损坏同样按未设置返回，details 保留原因
		response.ErrorWithDetails(c, http.StatusNotFound, 12001, "尚未设置课表，请先导入 WakeUp 课表", err.Error())
	case errors.Is(err, pkgerrors.ErrStoreUnavailable):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 12009, "存储服务暂不可用，请稍后再试", err.Error())
	case errors.Is(err, service.ErrInvalidShareCode):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, service.ErrFetchExhausted):
		response.ErrorWithDetails(c, http.StatusBadGateway, 12003, "获取课表失败，请检查分享口令是否正确或已过期", err.Error())
	case errors.Is(err, service.ErrScheduleDecode):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 12004, "课表数据解析失败", err.Error())
	case errors.Is(err, service.ErrNicknameEmpty),
		errors.Is(err, service.ErrNicknameTooLong):
		response.BadRequest(c, 12005, err.Error())
	case errors.Is(err, service.ErrSignatureEmpty),
		errors.Is(err, service.ErrSignatureTooLong):
		response.BadRequest(c, 12006, err.Error())
	case errors.Is(err, service.ErrInvalidDay):
		response.BadRequest(c, 12007, err.Error())
	case errors.Is(err, service.ErrIncompleteDayArgs):
		response.BadRequest(c, 12008, err.Error())
	default:
		response.InternalError(c)
	}
}
