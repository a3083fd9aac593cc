package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/internal/services"
	"authgate/internal/utils"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateAge    = 5 * 60 // секунды
)

type SocialHandler struct {
	social   services.SocialService
	sessions services.SessionService
}

func NewSocialHandler(social services.SocialService, sessions services.SessionService) *SocialHandler {
	return &SocialHandler{social: social, sessions: sessions}
}

// @Summary      Вход через Google
// @Description  Редирект на страницу согласия провайдера
// @Tags         Auth
// @Success      302
// @Router       /auth/google [get]
func (h *SocialHandler) Start(c *gin.Context) {
	if !h.social.Enabled() {
		// пустые креды — провайдер неактивен; редиректим всё равно,
		// отказ придёт от провайдера, не от нас
		log.Printf("[social][google] start with empty credentials, provider will reject")
	}

	state, err := utils.NewStateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start oauth flow"})
		return
	}
	c.SetCookie(oauthStateCookie, state, oauthStateAge, "/", "", false, true)
	c.Redirect(http.StatusFound, h.social.AuthCodeURL(state))
}

// @Summary      Callback от Google
// @Description  Обмен authorization code, upsert аккаунта, выдача сессии
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /auth/google/callback [get]
func (h *SocialHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errParam})
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}
	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	user, err := h.social.Authenticate(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "account already linked to another user"})
		case errors.Is(err, services.ErrProviderError):
			c.JSON(http.StatusBadGateway, gin.H{"error": "provider exchange failed"})
		default:
			log.Printf("[social][google] callback failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		}
		return
	}

	payload, err := issueSession(c, h.sessions, user)
	if err != nil {
		log.Printf("[social][google] session issue failed: user_id=%s err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusOK, payload)
}
