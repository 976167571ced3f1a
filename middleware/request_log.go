package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mingyan/blogserver/utils"
)

// RequestLog emits one structured log line per request.
func RequestLog() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		ctx.Next()

		utils.Sugar.Infow("request",
			"method", ctx.Request.Method,
			"path", path,
			"status", ctx.Writer.Status(),
			"ip", ctx.ClientIP(),
			"latency", time.Since(start).String(),
		)
	}
}
