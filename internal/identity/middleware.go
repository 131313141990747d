package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const subjectKey = "identity.subject"

// Middleware guards /api/ routes with a bearer token. Open lists exact paths
// that skip verification (gateway callbacks authenticate differently).
type Middleware struct {
	Verifier Verifier
	Disabled bool
	Open     []string
	Logger   *zap.Logger
}

func (m *Middleware) Handler() gin.HandlerFunc {
	open := map[string]struct{}{"/healthz": {}, "/readyz": {}}
	for _, p := range m.Open {
		open[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if m.Disabled {
			c.Next()
			return
		}
		p := c.Request.URL.Path
		if _, ok := open[p]; ok || !strings.HasPrefix(p, "/api/") {
			c.Next()
			return
		}
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": ErrMissingToken.Error()})
			return
		}
		if m.Verifier == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": "identity verifier not configured"})
			return
		}
		sub, err := m.Verifier.Verify(c.Request.Context(), tok)
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, ErrInvalidToken) {
				status = http.StatusBadGateway
				if m.Logger != nil {
					m.Logger.Warn("identity verify failed", zap.Error(err))
				}
			}
			c.AbortWithStatusJSON(status, gin.H{"code": status, "message": "unauthorized"})
			return
		}
		c.Set(subjectKey, sub)
		c.Next()
	}
}

// SubjectFromGin returns the verified subject stored by the middleware.
func SubjectFromGin(c *gin.Context) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Get(subjectKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
