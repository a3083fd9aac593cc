package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/middleware"
	"authgate/internal/models"
	"authgate/internal/repositories"
	"authgate/internal/services"
)

type AuthHandler struct {
	otp      services.OTPService
	sessions services.SessionService
	users    repositories.UserRepository
	accounts repositories.AccountRepository
}

func NewAuthHandler(otp services.OTPService, sessions services.SessionService, users repositories.UserRepository, accounts repositories.AccountRepository) *AuthHandler {
	return &AuthHandler{otp: otp, sessions: sessions, users: users, accounts: accounts}
}

type otpRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required"`
}

// @Summary      Запрос одноразового кода
// @Description  Выдаёт код на email; прошлый невостребованный код гасится
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      otpRequest  true  "Email и назначение кода"
// @Success      202      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /auth/otp/request [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose, err := models.ParsePurpose(req.Purpose)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown purpose"})
		return
	}

	res, err := h.otp.Issue(c.Request.Context(), strings.TrimSpace(req.Email), purpose)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, services.ErrInvalidPurpose):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrResendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
		default:
			log.Printf("[auth][otp-request] issue failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue code"})
		}
		return
	}

	// ответ не раскрывает, существует ли такой пользователь
	delivery := "sent"
	if !res.Delivered {
		delivery = "failed"
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":    "code issued",
		"delivery":   delivery,
		"expires_at": res.ExpiresAt,
	})
}

type otpVerifyRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// @Summary      Проверка одноразового кода
// @Description  Сверяет код; для sign-in/email-verification выдаёт сессию
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      otpVerifyRequest  true  "Email, назначение и код"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose, err := models.ParsePurpose(req.Purpose)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown purpose"})
		return
	}

	user, err := h.otp.Verify(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Code), purpose)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail), errors.Is(err, services.ErrInvalidPurpose):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "code expired, please request a new one"})
		case errors.Is(err, services.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, please request a new code"})
		case errors.Is(err, services.ErrCodeInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		default:
			log.Printf("[auth][otp-verify] verify failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	// password-reset: код погашен, но сессию не выдаём — дальше
	// работает отдельный флоу сброса
	if purpose == models.PurposePasswordReset {
		c.JSON(http.StatusOK, gin.H{"verified": true})
		return
	}

	payload, err := issueSession(c, h.sessions, user)
	if err != nil {
		log.Printf("[auth][otp-verify] session issue failed: user_id=%s err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// @Summary      Текущая сессия
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /auth/session [get]
func (h *AuthHandler) CurrentSession(c *gin.Context) {
	userID, ok := getStringFromCtx(c, "user_id")
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	// привязанные внешние аккаунты; ошибка списка сессию не ломает
	accounts, err := h.accounts.ListByUser(user.ID)
	if err != nil {
		log.Printf("[auth][session] account list failed: user_id=%s err=%v", user.ID, err)
		accounts = nil
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}

	sessionID, _ := getStringFromCtx(c, "session_id")
	c.JSON(http.StatusOK, gin.H{"user": user, "session_id": sessionID, "accounts": accounts})
}

// @Summary      Выход
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// opaque токен: из контекста (middleware) или напрямую из cookie
	token, _ := getStringFromCtx(c, "session_token")
	if token == "" {
		if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
			token = cookie
		}
	}

	var revokeErr error
	if token != "" {
		revokeErr = h.sessions.Revoke(token)
	} else if sessionID, ok := getStringFromCtx(c, "session_id"); ok && sessionID != "" {
		// JWT-путь: opaque токена в запросе нет, отзываем по session_id из claims
		revokeErr = h.sessions.RevokeByID(sessionID)
	}
	if revokeErr != nil {
		log.Printf("[auth][logout] revoke failed: %v", revokeErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
