package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"authgate/internal/mailer"
	"authgate/internal/models"
	"authgate/internal/repositories"
)

// In-memory реализации репозиториев для юнит-тестов сервисного слоя.

type memVerificationRepo struct {
	recs []*models.Verification
}

func (m *memVerificationRepo) Issue(v *models.Verification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	for _, r := range m.recs {
		if r.Email == v.Email && r.Purpose == v.Purpose && !r.Consumed {
			r.Consumed = true
		}
	}
	cp := *v
	m.recs = append(m.recs, &cp)
	return nil
}

func (m *memVerificationRepo) GetLatest(email string, purpose models.Purpose) (*models.Verification, error) {
	var candidates []*models.Verification
	for _, r := range m.recs {
		if r.Email == email && r.Purpose == purpose && !r.Consumed {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memVerificationRepo) CountRecentIssues(email string, purpose models.Purpose, since time.Time) (int, error) {
	c := 0
	for _, r := range m.recs {
		if r.Email == email && r.Purpose == purpose && !r.CreatedAt.Before(since) {
			c++
		}
	}
	return c, nil
}

func (m *memVerificationRepo) IncrementAttempts(id string) (int, error) {
	for _, r := range m.recs {
		if r.ID == id {
			r.Attempts++
			return r.Attempts, nil
		}
	}
	return 0, errors.New("not found")
}

func (m *memVerificationRepo) MarkConsumed(id string) error {
	for _, r := range m.recs {
		if r.ID == id {
			r.Consumed = true
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memVerificationRepo) ExpireNow(id string) error {
	for _, r := range m.recs {
		if r.ID == id {
			r.ExpiresAt = time.Now().Add(-time.Second)
			return nil
		}
	}
	return errors.New("not found")
}

type memUserRepo struct {
	users []*models.User
}

func (m *memUserRepo) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memUserRepo) GetByID(id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) MarkEmailVerified(id string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}
	return errors.New("not found")
}

type memSessionRepo struct {
	sessions []*models.Session
}

func (m *memSessionRepo) Create(session *models.Session) error {
	cp := *session
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memSessionRepo) GetByToken(token string) (*models.Session, error) {
	for _, s := range m.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessionRepo) DeleteByToken(token string) error {
	for i, s := range m.sessions {
		if s.Token == token {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memSessionRepo) DeleteByID(id string) error {
	for i, s := range m.sessions {
		if s.ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memSessionRepo) DeleteExpired() (int64, error) {
	var kept []*models.Session
	var n int64
	for _, s := range m.sessions {
		if time.Now().After(s.ExpiresAt) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return n, nil
}

type memAccountRepo struct {
	accounts []*models.Account
}

func (m *memAccountRepo) Create(account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	for _, a := range m.accounts {
		if a.Provider == account.Provider && a.ProviderAccountID == account.ProviderAccountID {
			return repositories.ErrDuplicateAccount
		}
	}
	cp := *account
	m.accounts = append(m.accounts, &cp)
	return nil
}

func (m *memAccountRepo) GetByProviderAccountID(provider, providerAccountID string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAccountRepo) ListByUser(userID string) ([]*models.Account, error) {
	var res []*models.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			cp := *a
			res = append(res, &cp)
		}
	}
	return res, nil
}

// captureSender пишет письма в память; при fail=true возвращает ошибку,
// но письмо всё равно фиксирует (код нужен тестам).
type captureSender struct {
	sent []mailer.Message
	fail bool
}

func (s *captureSender) Send(_ context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	if s.fail {
		return errors.New("delivery transport down")
	}
	return nil
}
