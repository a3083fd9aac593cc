package services

import "errors"

// Пользовательские ошибки сервисного слоя. Хендлеры мапят их на HTTP-статусы;
// всё остальное (хранилище, транспорт) оборачивается через %w и уходит в 500.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPurpose  = errors.New("invalid purpose")
	ErrResendThrottled = errors.New("resend throttled")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeInvalid     = errors.New("code invalid")
	ErrSessionInvalid  = errors.New("session invalid")
	ErrSessionExpired  = errors.New("session expired")
	ErrAccountConflict = errors.New("account linked to another user")
	ErrProviderError   = errors.New("provider exchange failed")
)
