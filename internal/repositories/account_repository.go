package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authgate/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicateAccount — нарушение уникальности (provider, provider_account_id).
var ErrDuplicateAccount = errors.New("account already linked")

type AccountRepository interface {
	Create(account *models.Account) error
	GetByProviderAccountID(provider, providerAccountID string) (*models.Account, error)
	ListByUser(userID string) ([]*models.Account, error)
}

type accountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{DB: db}
}

func (r *accountRepository) Create(account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO accounts (id, provider, provider_account_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.Exec(q,
		account.ID,
		account.Provider,
		account.ProviderAccountID,
		account.UserID,
		account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("account create: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByProviderAccountID(provider, providerAccountID string) (*models.Account, error) {
	const q = `
		SELECT id, provider, provider_account_id, user_id, created_at
		FROM accounts
		WHERE provider = $1 AND provider_account_id = $2
	`
	a := &models.Account{}
	err := r.DB.QueryRow(q, provider, providerAccountID).Scan(
		&a.ID, &a.Provider, &a.ProviderAccountID, &a.UserID, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("account get: %w", err)
	}
	return a, nil
}

func (r *accountRepository) ListByUser(userID string) ([]*models.Account, error) {
	const q = `
		SELECT id, provider, provider_account_id, user_id, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("account list: %w", err)
	}
	defer rows.Close()

	var res []*models.Account
	for rows.Next() {
		a := &models.Account{}
		if err := rows.Scan(&a.ID, &a.Provider, &a.ProviderAccountID, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
