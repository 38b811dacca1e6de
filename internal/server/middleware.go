package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smallbiznis/folio/internal/auditcontext"
	"github.com/smallbiznis/folio/internal/orgcontext"
)

const (
	HeaderOrg            = "X-Org-ID"
	HeaderActor          = "X-Actor-ID"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderOverridePermitted is injected by the gateway after its
	// permission check; it is never accepted from end clients directly.
	HeaderOverridePermitted = "X-Override-Permitted"
)

// RequestID propagates the inbound request id, minting one when absent, and
// records client network details for the audit trail.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := auditcontext.WithRequestID(c.Request.Context(), requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// OrgContext resolves the tenant and actor from the trusted gateway headers
// and injects them into the request context. Every tenant-scoped route sits
// behind this middleware.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		if actor := strings.TrimSpace(c.GetHeader(HeaderActor)); actor != "" {
			actorID, err := snowflake.ParseString(actor)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			ctx = orgcontext.WithActorID(ctx, actorID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", auditcontext.RequestIDFromContext(c.Request.Context())),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, zap.Error(last.Err))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
}

func overridePermitted(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderOverridePermitted)), "true")
}
