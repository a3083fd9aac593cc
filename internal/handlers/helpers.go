package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"authgate/internal/middleware"
	"authgate/internal/models"
	"authgate/internal/services"
)

const (
	accessTokenTTL   = 15 * time.Minute
	sessionCookieAge = 30 * 24 * 60 * 60 // секунды, как у сессии
)

func getStringFromCtx(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// issueSession — общий финал успешной аутентификации (OTP или OAuth):
// новая сессия, access JWT, cookie с opaque токеном.
func issueSession(c *gin.Context, sessions services.SessionService, user *models.User) (gin.H, error) {
	session, err := sessions.Issue(user, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		return nil, err
	}

	accessToken, err := newAccessToken(user, session)
	if err != nil {
		return nil, err
	}

	c.SetCookie(middleware.SessionCookieName, session.Token, sessionCookieAge, "/", "", false, true)

	return gin.H{
		"user":    user,
		"session": session,
		"tokens": gin.H{
			"access_token":  accessToken,
			"session_token": session.Token, // значение отдаём клиенту, но не логируем
		},
	}, nil
}

func newAccessToken(user *models.User, session *models.Session) (string, error) {
	claims := &middleware.Claims{
		UserID:    user.ID,
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.JWTKey)
}
