package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OperatorGate admits only the configured operator subjects. It must run
// after Middleware so the verified subject is already on the context.
type OperatorGate struct {
	Subjects []string
	Disabled bool
	Logger   *zap.Logger
}

func (g *OperatorGate) Handler() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(g.Subjects))
	for _, s := range g.Subjects {
		if s = strings.TrimSpace(s); s != "" {
			allowed[s] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if g.Disabled {
			c.Next()
			return
		}
		sub, ok := SubjectFromGin(c)
		if ok {
			if _, ok = allowed[sub]; ok {
				c.Next()
				return
			}
		}
		if g.Logger != nil {
			g.Logger.Warn("operator route refused", zap.String("subject", sub), zap.String("path", c.Request.URL.Path))
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "operator access required"})
	}
}
