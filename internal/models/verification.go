package models

import (
	"fmt"
	"time"
)

// Purpose — назначение одноразового кода. Шаблоны писем ключуются по нему.
type Purpose string

const (
	PurposeSignIn            Purpose = "sign-in"
	PurposeEmailVerification Purpose = "email-verification"
	PurposePasswordReset     Purpose = "password-reset"
)

// ParsePurpose — строгий разбор: неизвестный тег отклоняем сразу,
// никакого дефолта.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeSignIn, PurposeEmailVerification, PurposePasswordReset:
		return Purpose(s), nil
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}

// Verification — отдельная запись на каждую выдачу кода.
// Храним только bcrypt-хэш кода (CodeHash), TTL и счётчик попыток.
type Verification struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Purpose   Purpose   `json:"purpose"`
	CodeHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
	Attempts  int       `json:"attempts"`
}
