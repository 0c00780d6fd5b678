package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"wakeup-schedule/pkg/redis"
	"wakeup-schedule/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 按路由与路径中的 user_id 计数，同一用户频繁导入会被拒绝；
// 没有 user_id 的路由按调用方适配器计数。
// rdb 为 nil 或 Redis 出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		who := c.Param("user_id")
		if who == "" {
			who = "adapter:" + c.GetString("subject")
		}
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), who)

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
