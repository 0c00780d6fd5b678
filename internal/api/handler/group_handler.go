package handler

import (
	"github.com/gin-gonic/gin"

	"wakeup-schedule/internal/dto"
	"wakeup-schedule/internal/service"
	"wakeup-schedule/pkg/response"
)

// GroupHandler 群模块 HTTP 处理器
type GroupHandler struct {
	groupSvc  service.GroupService
	statusSvc service.StatusService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService, statusSvc service.StatusService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc, statusSvc: statusSvc}
}

// GetGroupStatus 群课表状态
// GET /api/v1/groups/:group_id/status?format=text
func (h *GroupHandler) GetGroupStatus(c *gin.Context) {
	groupID, ok := MustGetGroupIDParam(c)
	if !ok {
		return
	}

	result, err := h.statusSvc.GetGroupStatus(c.Request.Context(), groupID, wantText(c))
	if err != nil {
		handleStatusError(c, err)
		return
	}

	response.OK(c, result)
}

// SyncMembers 全量同步群成员
// PUT /api/v1/groups/:group_id/members
func (h *GroupHandler) SyncMembers(c *gin.Context) {
	groupID, ok := MustGetGroupIDParam(c)
	if !ok {
		return
	}

	var req dto.SyncMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.groupSvc.SyncMembers(c.Request.Context(), groupID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
