package delivery

import (
	"errors"
	"net/http"
	"strings"

	"alertsphere/internal/subscriber/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerKey = "owner"

// OperatorRole is the role claim that may issue broadcasts and change
// server settings.
const OperatorRole = "operator"

// OwnerMiddleware resolves the token owner from an optional bearer JWT.
// Requests without one are anonymous; a bearer that fails validation is
// rejected.
func OwnerMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || jwtSecret == "" {
			c.Set(ownerKey, domain.AnonymousOwner)
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		owner, err := ValidateOwnerToken(parts[1], jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OperatorMiddleware admits only bearers whose token carries the operator
// role. Without a configured secret every request is refused.
func OperatorMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator authentication is not configured"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := parseClaims(parts[1], jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}
		if role, _ := claims["role"].(string); role != OperatorRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "operator role required"})
			c.Abort()
			return
		}

		if userID, _ := claims["user_id"].(string); userID != "" {
			c.Set(ownerKey, userID)
		}
		c.Next()
	}
}

// ValidateOwnerToken checks an HS256 token and returns its user_id claim.
func ValidateOwnerToken(tokenString, secret string) (string, error) {
	claims, err := parseClaims(tokenString, secret)
	if err != nil {
		return "", err
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token claims")
	}
	return userID, nil
}

func parseClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func ownerFrom(c *gin.Context) string {
	if v, ok := c.Get(ownerKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return domain.AnonymousOwner
}
