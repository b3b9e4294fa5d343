package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/repository"
)

const sessionCtxKey = "session"

func (h *Handler) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Debug().Msg("authorization header required")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Debug().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	session, err := h.auth.Authenticate(c, parts[1])
	if err != nil {
		h.logger.Debug().Err(err).Msg("failed to authenticate")
		h.fail(c, err)
		return
	}

	c.Set(sessionCtxKey, session)
	c.Next()
}

func sessionFromContext(c *gin.Context) *repository.Session {
	value, exists := c.Get(sessionCtxKey)
	if !exists {
		return nil
	}
	session, _ := value.(*repository.Session)
	return session
}

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("handled request")
	}
}
