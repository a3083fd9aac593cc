package models

import "time"

// Account — связка локального пользователя с внешним OAuth-провайдером.
// Пара (provider, provider_account_id) уникальна.
type Account struct {
	ID                string    `json:"id"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"provider_account_id"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
}
