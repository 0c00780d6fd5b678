package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/service"
	"wakeup-schedule/pkg/response"
)

// ConversationHandler 交互式输入 HTTP 处理器
type ConversationHandler struct {
	conversationSvc service.ConversationService
}

// NewConversationHandler 创建 ConversationHandler
func NewConversationHandler(conversationSvc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationSvc: conversationSvc}
}

// BeginPrompt 进入等待输入状态
// POST /api/v1/users/:user_id/conversation/prompt
func (h *ConversationHandler) BeginPrompt(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.BeginPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.conversationSvc.Begin(c.Request.Context(), userID, service.ConversationKind(req.Kind))
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OK(c, result)
}

// HandleMessage 处理用户的下一条消息
// POST /api/v1/users/:user_id/conversation/messages
func (h *ConversationHandler) HandleMessage(c *gin.Context) {
	userID, ok := MustGetUserIDParam(c)
	if !ok {
		return
	}

	var req dto.ConversationMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.conversationSvc.HandleMessage(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleConversationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ConversationHandler) handleConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownConversationKind):
		response.BadRequest(c, 15001, err.Error())
	default:
		handleScheduleError(c, err)
	}
}
