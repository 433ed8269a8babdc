package http

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	userIDKey    = "userID"
	requestIDKey = "requestID"

	requestIDHeader = "X-Request-ID"
)

// requireAuth rejects requests without a valid bearer token before any
// handler runs and records the caller's id on the context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, message("No token, authorization denied"))
			return
		}

		userID, err := h.authn.Verify(token)
		if err != nil {
			h.entry(c).WithError(err).Debug("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, message("Token is not valid"))
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// bearerToken accepts "Bearer <token>" as well as a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(header, "Bearer") {
		return ""
	}
	return header
}

// currentUserID is only meaningful behind requireAuth.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		if id, err := uuid.Parse(c.GetHeader(requestIDHeader)); err == nil {
			requestID = id.String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry := h.entry(c).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Info("request completed")
	}
}

// entry returns a logger scoped to the current request.
func (h *Handler) entry(c *gin.Context) *logrus.Entry {
	fields := logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(requestIDKey),
	}
	if id := c.GetInt64(userIDKey); id > 0 {
		fields["user_id"] = id
	}
	return h.logger.WithFields(fields)
}

func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		h.entry(c).WithField("panic", recovered).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, message("Something went wrong!"))
	})
}
