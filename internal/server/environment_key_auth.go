package server

import (
	"crypto/subtle"
	"strings"

	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	"github.com/gin-gonic/gin"
)

const (
	environmentKeyHeader  = "X-Environment-Key"
	contextEnvironmentKey = "environment"
)

// EnvironmentKeyRequired authenticates SDK requests by their opaque
// environment key. The key doubles as the environment lookup handle, so
// a failed lookup and a mismatched key are the same 401.
func (s *Server) EnvironmentKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(environmentKeyHeader))
		if key == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		env, err := s.envSvc.GetByAPIKey(c.Request.Context(), key)
		if err != nil || env == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(env.APIKey), []byte(key)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextEnvironmentKey, env)
		c.Next()
	}
}

func environmentFromContext(c *gin.Context) *envdomain.Environment {
	v, ok := c.Get(contextEnvironmentKey)
	if !ok {
		return nil
	}
	env, _ := v.(*envdomain.Environment)
	return env
}
