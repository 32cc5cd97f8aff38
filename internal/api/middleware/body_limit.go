package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jlayese/translator-service-application/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// Content-Length 已知超限时直接拒绝；未知长度的请求体在读取时截断，由绑定失败返回 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
