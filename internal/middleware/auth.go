// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/emilythestrangee/qa-community/backend/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// IssueToken signs a session token for user valid for ttl from now.
func IssueToken(secret []byte, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// ParseToken validates a session token and returns the user id and role it carries.
func ParseToken(secret []byte, tokenString string, clock clockwork.Clock) (int, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(clock.Now),
	)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", models.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("%w: invalid token claims", models.ErrUnauthorized)
	}
	// JSON numbers decode as float64
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, "", fmt.Errorf("%w: missing user id", models.ErrUnauthorized)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleMember
	}
	return int(id), role, nil
}

// AuthMiddleware requires a valid bearer token and stores the caller's id and role.
func AuthMiddleware(secret []byte, clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, role, err := ParseToken(secret, strings.TrimSpace(tokenString), clock)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// OptionalAuth stores the caller's id and role when a valid bearer token is
// present and otherwise lets the request through anonymously, leaving the
// handler to decide how to answer.
func OptionalAuth(secret []byte, clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if found {
			if userID, role, err := ParseToken(secret, strings.TrimSpace(tokenString), clock); err == nil {
				c.Set(UserIDKey, userID)
				c.Set(RoleKey, role)
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
