package repositories

import (
	"database/sql"
	"fmt"

	"authgate/internal/models"
)

type SessionRepository interface {
	Create(session *models.Session) error
	GetByToken(token string) (*models.Session, error)
	DeleteByToken(token string) error
	DeleteByID(id string) error
	DeleteExpired() (int64, error)
}

type sessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{DB: db}
}

func (r *sessionRepository) Create(session *models.Session) error {
	const q = `
		INSERT INTO sessions (id, token, user_id, expires_at, created_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.Exec(q,
		session.ID,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
		session.IPAddress,
		session.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByToken(token string) (*models.Session, error) {
	const q = `
		SELECT id, token, user_id, expires_at, created_at, ip_address, user_agent
		FROM sessions
		WHERE token = $1
	`
	s := &models.Session{}
	err := r.DB.QueryRow(q, token).Scan(
		&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.IPAddress, &s.UserAgent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("session get by token: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) DeleteByToken(token string) error {
	if _, err := r.DB.Exec(`DELETE FROM sessions WHERE token=$1`, token); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteByID(id string) error {
	if _, err := r.DB.Exec(`DELETE FROM sessions WHERE id=$1`, id); err != nil {
		return fmt.Errorf("session delete by id: %w", err)
	}
	return nil
}

// DeleteExpired — уборка протухших сессий (вызывается из фонового тика).
func (r *sessionRepository) DeleteExpired() (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("session delete expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
