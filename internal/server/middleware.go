package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Permission flags injected by the upstream gateway.
const (
	PermBillingView   = "billing_view"
	PermBillingManage = "billing_manage"

	headerActorID     = "X-Actor-Id"
	headerPermissions = "X-Permissions"
	headerRequestID   = "X-Request-Id"
)

// RequestLogger assigns a request id and logs each request on completion.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, requestID)

		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// RequirePermission enforces the auth boundary: authentication and
// permission evaluation happen upstream, and the gateway forwards the actor
// id and granted flags as headers.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(headerActorID))
		if actor == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		granted := strings.Split(c.GetHeader(headerPermissions), ",")
		for _, p := range granted {
			p = strings.TrimSpace(p)
			// billing_manage implies billing_view.
			if p == permission || (permission == PermBillingView && p == PermBillingManage) {
				c.Set("actor_id", actor)
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}
