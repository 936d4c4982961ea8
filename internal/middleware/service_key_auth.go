package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ServiceKeyHeader carries the API key of a collaborating subsystem.
const ServiceKeyHeader = "x-api-key"

// ServiceKeyAuth authenticates collaborating subsystems by API key. keyHashes maps a
// service name to the bcrypt hash of its key; a match authenticates the request as
// "service:<name>" and the JWT check is skipped. Requests without a matching key fall
// through to the next middleware.
func ServiceKeyAuth(keyHashes map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(ServiceKeyHeader)
		if key == "" || len(keyHashes) == 0 {
			c.Next()
			return
		}

		for name, hash := range keyHashes {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
				setAuthenticated(c, "service:"+name, "service_key")
				c.Next()
				return
			}
		}

		GetLoggerFromCtx(c.Request.Context()).Warn("Unknown service API key presented")
		c.Next()
	}
}
