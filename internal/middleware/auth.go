package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"authgate/internal/services"
)

// JWTKey подставляется из конфига при старте (app.Run).
var JWTKey = []byte("dev-secret-change-me")

type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

const SessionCookieName = "session_token"

// AuthMiddleware принимает либо короткоживущий access JWT, либо opaque
// session token (Bearer или cookie). JWT проверяется без похода в БД,
// opaque токен — через хранилище сессий.
func AuthMiddleware(sessions services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		// 1) пробуем как JWT
		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			// принимаем только HMAC (HS256 и т.п.)
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return JWTKey, nil
		})
		if err == nil && parsed.Valid {
			const leeway = 2 * time.Minute
			now := time.Now().Add(-leeway)
			if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("session_id", claims.SessionID)
			c.Next()
			return
		}

		// 2) иначе считаем токен opaque session token
		session, err := sessions.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set("user_id", session.UserID)
		c.Set("session_id", session.ID)
		c.Set("session_token", token)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
