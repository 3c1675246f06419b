package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/service"
)

// Context keys set by the middleware chain
const (
	correlationIDKey = "correlation_id"
	userIDKey        = "user_id"
	roleKey          = "role"
)

// TokenValidator resolves a bearer token to its claims
type TokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, WithMessage(
				fmt.Errorf("missing bearer token: %w", domain.ErrUnauthenticated),
				"Authentication required. No token provided."))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			abortWithError(c, WithMessage(
				fmt.Errorf("empty bearer token: %w", domain.ErrUnauthenticated),
				"Authentication token is missing."))
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			message := "Invalid token. Please log in again."
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token expired. Please log in again."
			}
			abortWithError(c, WithMessage(err, message))
			return
		}

		c.Set(userIDKey, claims.UserID.String())
		c.Set(roleKey, string(claims.Role))
		c.Next()
	}
}

// RequireRoles lets only the listed roles through. It must run after
// RequireAuth.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, WithMessage(
			fmt.Errorf("role %q: %w", role, domain.ErrForbidden),
			fmt.Sprintf("Access denied. %s role is not authorized.", role)))
	}
}

// CurrentUser returns the authenticated caller's id
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(userIDKey))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CurrentRole returns the authenticated caller's role
func CurrentRole(c *gin.Context) domain.Role {
	return domain.Role(c.GetString(roleKey))
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
