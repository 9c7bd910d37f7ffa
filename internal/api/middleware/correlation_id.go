package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationHeader = "X-Correlation-ID"
	correlationIDKey  = "correlationID"
)

// CorrelationID 让每个请求携带关联 ID：沿用客户端传入的值，
// 否则生成一个。导出任务与通知消息用同一个 ID 串起整条链路。
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(correlationHeader, id)

		c.Next()
	}
}

// GetCorrelationID 从上下文中取出关联 ID，未设置时返回空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
