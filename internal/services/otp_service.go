package services

import (
	"context"
	"log"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"authgate/internal/mailer"
	"authgate/internal/models"
	"authgate/internal/repositories"
	"authgate/internal/utils"
)

// Настройки OTP (совпадают с текстом письма: код живёт 10 минут).
const (
	codeLength          = 6
	defaultCodeTTL      = 10 * time.Minute
	maxIssuesPerWindow  = 3
	issueWindow         = 10 * time.Minute
	maxConfirmAttempts  = 5
	deliverySendTimeout = 10 * time.Second
)

// IssueResult — итог выдачи кода. Delivered=false не означает провал запроса:
// код уже сохранён и действителен, доставка могла не дойти.
type IssueResult struct {
	Delivered bool      `json:"delivered"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OTPService interface {
	Issue(ctx context.Context, email string, purpose models.Purpose) (*IssueResult, error)
	Verify(ctx context.Context, email, code string, purpose models.Purpose) (*models.User, error)
}

type otpService struct {
	verifications repositories.VerificationRepository
	users         repositories.UserRepository
	sender        mailer.Sender
	codeTTL       time.Duration
	now           func() time.Time
}

func NewOTPService(
	verifications repositories.VerificationRepository,
	users repositories.UserRepository,
	sender mailer.Sender,
) OTPService {
	return &otpService{
		verifications: verifications,
		users:         users,
		sender:        sender,
		codeTTL:       defaultCodeTTL,
		now:           time.Now,
	}
}

// Issue — выдаёт новый код: гасит прошлый, пишет bcrypt-хэш, шлёт письмо.
// Ошибка доставки не откатывает запись — код остаётся действительным.
func (s *otpService) Issue(ctx context.Context, email string, purpose models.Purpose) (*IssueResult, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if _, err := models.ParsePurpose(string(purpose)); err != nil {
		return nil, ErrInvalidPurpose
	}

	// Троттлинг: не чаще 3 выдач на (email, purpose) за окно
	since := s.now().Add(-issueWindow)
	cnt, err := s.verifications.CountRecentIssues(email, purpose, since)
	if err != nil {
		return nil, err
	}
	if cnt >= maxIssuesPerWindow {
		return nil, ErrResendThrottled
	}

	code, err := utils.NewNumericCode(codeLength)
	if err != nil {
		return nil, err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Шаблон проверяем до записи: неизвестный purpose должен падать сразу
	msg, err := mailer.RenderOTP(email, purpose, code)
	if err != nil {
		return nil, ErrInvalidPurpose
	}

	createdAt := s.now()
	v := &models.Verification{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.codeTTL),
	}
	if err := s.verifications.Issue(v); err != nil {
		return nil, err
	}

	res := &IssueResult{Delivered: true, ExpiresAt: v.ExpiresAt}

	sendCtx, cancel := context.WithTimeout(ctx, deliverySendTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, msg); err != nil {
		// код выдан, доставка неизвестна — каждый может запросить повтор
		log.Printf("[otp][issue] delivery failed: purpose=%s err=%v", purpose, err)
		res.Delivered = false
	}

	log.Printf("[otp][issue] ok: purpose=%s delivered=%v expires_at=%s",
		purpose, res.Delivered, v.ExpiresAt.Format(time.RFC3339))
	return res, nil
}

// Verify — сверяет код с bcrypt-хэшем, считает попытки, TTL.
// Повтор использованного кода невозможен: запись гасится атомарно.
func (s *otpService) Verify(ctx context.Context, email, code string, purpose models.Purpose) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if _, err := models.ParsePurpose(string(purpose)); err != nil {
		return nil, ErrInvalidPurpose
	}

	rec, err := s.verifications.GetLatest(email, purpose)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Consumed {
		return nil, ErrCodeInvalid
	}
	if s.now().After(rec.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		attempts, aerr := s.verifications.IncrementAttempts(rec.ID)
		if aerr != nil {
			return nil, aerr
		}
		if attempts >= maxConfirmAttempts {
			if eerr := s.verifications.ExpireNow(rec.ID); eerr != nil {
				return nil, eerr
			}
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeInvalid
	}

	if err := s.verifications.MarkConsumed(rec.ID); err != nil {
		return nil, err
	}

	// password-reset не создаёт пользователя и не выдаёт сессию;
	// дальнейший сброс пароля — вне этого сервиса
	if purpose == models.PurposePasswordReset {
		user, err := s.users.GetByEmail(email)
		if err != nil {
			return nil, err
		}
		return user, nil
	}

	user, err := s.ensureUser(email)
	if err != nil {
		return nil, err
	}
	log.Printf("[otp][verify] ok: purpose=%s user_id=%s", purpose, user.ID)
	return user, nil
}

// ensureUser — пользователь появляется при первом успешном входе.
func (s *otpService) ensureUser(email string) (*models.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			Email:         email,
			EmailVerified: true,
			CreatedAt:     s.now(),
		}
		if err := s.users.Create(user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !user.EmailVerified {
		if err := s.users.MarkEmailVerified(user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
	}
	return user, nil
}
