package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the authenticated user's ID.
const userIDKey = contextKey("userID")

// authMethodKey records which middleware authenticated the request.
const authMethodKey = "authMethod"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// setAuthenticated stores the user on the request context and enriches the logger.
func setAuthenticated(c *gin.Context, userID string, method string) {
	ctx := WithUserID(c.Request.Context(), userID)
	logger := GetLoggerFromCtx(ctx).With("user_id", userID, "auth_method", method)
	c.Request = c.Request.WithContext(WithLogger(ctx, logger))
	c.Set(authMethodKey, method)
}
