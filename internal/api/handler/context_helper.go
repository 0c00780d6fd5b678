package handler

import (
	"github.com/gin-gonic/gin"

	"wakeup-schedule/pkg/response"
)

const maxIDLen = 64

// MustGetUserIDParam 读取路径中的 user_id。
// 为空或过长时写入 400 响应并返回 false，调用方应直接 return。
func MustGetUserIDParam(c *gin.Context) (string, bool) {
	return mustGetParam(c, "user_id", "用户ID不能为空")
}

// MustGetGroupIDParam 读取路径中的 group_id。
func MustGetGroupIDParam(c *gin.Context) (string, bool) {
	return mustGetParam(c, "group_id", "群ID不能为空")
}

func mustGetParam(c *gin.Context, name, emptyMsg string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, emptyMsg)
		return "", false
	}
	if len(v) > maxIDLen {
		response.BadRequest(c, 10001, name+" 过长")
		return "", false
	}
	return v, true
}
