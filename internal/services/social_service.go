package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"authgate/internal/config"
	"authgate/internal/models"
	"authgate/internal/repositories"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// ProviderIdentity — утверждение личности от провайдера после обмена кода.
type ProviderIdentity struct {
	Provider      string
	AccountID     string
	Email         string
	Name          string
	EmailVerified bool
}

type SocialService interface {
	// Enabled=false значит креды пустые; маршруты при этом живы,
	// отказ происходит на стороне провайдера, не у нас.
	Enabled() bool
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (*models.User, error)
}

type socialService struct {
	oauth       *oauth2.Config
	users       repositories.UserRepository
	accounts    repositories.AccountRepository
	userInfoURL string
}

func NewSocialService(
	cfg config.GoogleConfig,
	users repositories.UserRepository,
	accounts repositories.AccountRepository,
) SocialService {
	return &socialService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users:       users,
		accounts:    accounts,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *socialService) Enabled() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != ""
}

func (s *socialService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Authenticate — обмен authorization code на identity, затем upsert
// Account/User. Выдача сессии — забота вызывающего.
func (s *socialService) Authenticate(ctx context.Context, code string) (*models.User, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		log.Printf("[social][google] exchange failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	identity, err := s.fetchIdentity(ctx, token)
	if err != nil {
		log.Printf("[social][google] userinfo failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	return s.signIn(identity)
}

func (s *socialService) fetchIdentity(ctx context.Context, token *oauth2.Token) (*ProviderIdentity, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Sub == "" || payload.Email == "" {
		return nil, fmt.Errorf("userinfo missing sub or email")
	}
	return &ProviderIdentity{
		Provider:      "google",
		AccountID:     payload.Sub,
		Email:         payload.Email,
		Name:          payload.Name,
		EmailVerified: payload.EmailVerified,
	}, nil
}

// signIn — upsert по identity. Конфликт (provider-account уже у другого
// пользователя, чем владелец email) отклоняем, не мёржим.
func (s *socialService) signIn(identity *ProviderIdentity) (*models.User, error) {
	account, err := s.accounts.GetByProviderAccountID(identity.Provider, identity.AccountID)
	if err != nil {
		return nil, err
	}

	if account != nil {
		user, err := s.users.GetByID(account.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("account %s points to missing user %s", account.ID, account.UserID)
		}
		byEmail, err := s.users.GetByEmail(identity.Email)
		if err != nil {
			return nil, err
		}
		if byEmail != nil && byEmail.ID != user.ID {
			return nil, ErrAccountConflict
		}
		return user, nil
	}

	user, err := s.users.GetByEmail(identity.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			Email:         identity.Email,
			Name:          identity.Name,
			EmailVerified: identity.EmailVerified,
		}
		if err := s.users.Create(user); err != nil {
			return nil, err
		}
		log.Printf("[social][google] user created: user_id=%s", user.ID)
	}

	if err := s.accounts.Create(&models.Account{
		Provider:          identity.Provider,
		ProviderAccountID: identity.AccountID,
		UserID:            user.ID,
	}); err != nil {
		if err == repositories.ErrDuplicateAccount {
			// гонка: ту же пару (provider, id) успели привязать параллельно
			return nil, ErrAccountConflict
		}
		return nil, err
	}

	if identity.EmailVerified && !user.EmailVerified {
		if err := s.users.MarkEmailVerified(user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	return user, nil
}
