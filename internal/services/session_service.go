package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"authgate/internal/models"
	"authgate/internal/repositories"
	"authgate/internal/utils"
)

// Сессия живёт фиксированные 30 дней от выдачи, без скользящего окна.
const sessionTTL = 30 * 24 * time.Hour

type SessionService interface {
	Issue(user *models.User, ip, userAgent string) (*models.Session, error)
	Validate(token string) (*models.Session, error)
	Revoke(token string) error
	RevokeByID(id string) error
	PurgeExpired() (int64, error)
}

type sessionService struct {
	sessions repositories.SessionRepository
	now      func() time.Time
}

func NewSessionService(sessions repositories.SessionRepository) SessionService {
	return &sessionService{sessions: sessions, now: time.Now}
}

// Issue — opaque токен 32 байта из crypto/rand; клиент хранит его в cookie.
func (s *sessionService) Issue(user *models.User, ip, userAgent string) (*models.Session, error) {
	token, err := utils.NewSessionToken(32)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: createdAt.Add(sessionTTL),
		CreatedAt: createdAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	log.Printf("[session][issue] user_id=%s session_id=%s exp_at=%s",
		user.ID, session.ID, session.ExpiresAt.Format(time.RFC3339))
	return session, nil
}

func (s *sessionService) Validate(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	session, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionInvalid
	}
	if s.now().After(session.ExpiresAt) {
		// протухшую строку убираем сразу, не дожидаясь фоновой уборки
		if derr := s.sessions.DeleteByToken(token); derr != nil {
			log.Printf("[session][validate] delete expired failed: %v", derr)
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *sessionService) Revoke(token string) error {
	return s.sessions.DeleteByToken(token)
}

// RevokeByID — отзыв по id сессии: нужен на JWT-пути, где opaque токена
// в запросе нет, а session_id есть в claims.
func (s *sessionService) RevokeByID(id string) error {
	return s.sessions.DeleteByID(id)
}

func (s *sessionService) PurgeExpired() (int64, error) {
	return s.sessions.DeleteExpired()
}
