package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"churchhub/config"
)

// JWTClaims are the token claims for a staff account.
type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	ChurchID uint   `json:"church_id"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for a staff account.
func GenerateToken(userID uint, username, role string, churchID uint) (string, error) {
	ttl := time.Duration(config.AppConfig.TokenTTLHours) * time.Hour
	claims := JWTClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		ChurchID: churchID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "churchhub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies a token and returns its claims.
func ParseToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// JWTAuth authenticates requests and stores the account identity in the
// request context.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAuth(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token: " + err.Error()})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("churchID", claims.ChurchID)

		c.Next()
	}
}

// skipAuth reports whether the path is served without authentication.
func skipAuth(path string) bool {
	noAuthPaths := []string{
		"/api/login",
		"/api/monitor",
	}

	for _, p := range noAuthPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
