package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"authgate/internal/models"

	"github.com/google/uuid"
)

type VerificationRepository interface {
	// Issue атомарно гасит прошлые живые коды по (email, purpose) и пишет новый.
	Issue(v *models.Verification) error
	GetLatest(email string, purpose models.Purpose) (*models.Verification, error)
	CountRecentIssues(email string, purpose models.Purpose, since time.Time) (int, error)
	IncrementAttempts(id string) (int, error)
	MarkConsumed(id string) error
	ExpireNow(id string) error
}

type verificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{DB: db}
}

// Issue — supersede в одной транзакции: старый невостребованный код
// перестаёт действовать в тот же момент, когда появляется новый.
func (r *verificationRepository) Issue(v *models.Verification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("verification issue begin: %w", err)
	}
	defer tx.Rollback()

	const supersede = `
		UPDATE verifications
		SET consumed = TRUE
		WHERE email = $1 AND purpose = $2 AND consumed = FALSE
	`
	if _, err := tx.Exec(supersede, v.Email, string(v.Purpose)); err != nil {
		return fmt.Errorf("verification supersede: %w", err)
	}

	const insert = `
		INSERT INTO verifications (id, email, purpose, code_hash, created_at, expires_at, consumed, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, 0)
	`
	if _, err := tx.Exec(insert, v.ID, v.Email, string(v.Purpose), v.CodeHash, v.CreatedAt, v.ExpiresAt); err != nil {
		return fmt.Errorf("verification insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("verification issue commit: %w", err)
	}
	return nil
}

// GetLatest — последний невостребованный код по (email, purpose).
func (r *verificationRepository) GetLatest(email string, purpose models.Purpose) (*models.Verification, error) {
	const q = `
		SELECT id, email, purpose, code_hash, created_at, expires_at, consumed, attempts
		FROM verifications
		WHERE email = $1 AND purpose = $2 AND consumed = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	v := &models.Verification{}
	var purposeStr string
	err := r.DB.QueryRow(q, email, string(purpose)).Scan(
		&v.ID, &v.Email, &purposeStr, &v.CodeHash, &v.CreatedAt, &v.ExpiresAt, &v.Consumed, &v.Attempts,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification latest: %w", err)
	}
	v.Purpose = models.Purpose(purposeStr)
	return v, nil
}

// CountRecentIssues — сколько кодов выдали за окно (для троттлинга).
func (r *verificationRepository) CountRecentIssues(email string, purpose models.Purpose, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verifications
		WHERE email = $1 AND purpose = $2 AND created_at >= $3
	`
	var c int
	if err := r.DB.QueryRow(q, email, string(purpose), since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification count recent: %w", err)
	}
	return c, nil
}

// IncrementAttempts — +1 попытка, возвращает новое значение attempts.
func (r *verificationRepository) IncrementAttempts(id string) (int, error) {
	const q = `
		UPDATE verifications
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *verificationRepository) MarkConsumed(id string) error {
	if _, err := r.DB.Exec(`UPDATE verifications SET consumed=TRUE WHERE id=$1`, id); err != nil {
		return fmt.Errorf("verification mark consumed: %w", err)
	}
	return nil
}

// ExpireNow — моментально "протухаем" код (используем при превышении попыток).
func (r *verificationRepository) ExpireNow(id string) error {
	if _, err := r.DB.Exec(`UPDATE verifications SET expires_at = NOW() WHERE id=$1`, id); err != nil {
		return fmt.Errorf("verification expire now: %w", err)
	}
	return nil
}
