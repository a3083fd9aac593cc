package mailer

import (
	"fmt"

	"authgate/internal/models"
)

// Шаблоны писем — статическая таблица по назначению кода, а не цепочка if.
// Новый Purpose без шаблона упадёт на выдаче, а не молча уйдёт с дефолтной темой.
var otpSubjects = map[models.Purpose]string{
	models.PurposeSignIn:            "ログイン認証コード",
	models.PurposeEmailVerification: "メールアドレス確認コード",
	models.PurposePasswordReset:     "パスワードリセットコード",
}

const otpTextTemplate = "あなたの認証コードは %s です。このコードは10分間有効です。"

const otpHTMLTemplate = `<div style="font-family: sans-serif; max-width: 400px; margin: 0 auto;">
  <h2>%s</h2>
  <p>あなたの認証コードは:</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 4px; text-align: center; padding: 20px; background: #f5f5f5; border-radius: 8px;">%s</p>
  <p style="color: #666; font-size: 14px;">このコードは10分間有効です。</p>
</div>`

// RenderOTP собирает письмо с кодом для данного назначения.
func RenderOTP(to string, purpose models.Purpose, code string) (Message, error) {
	subject, ok := otpSubjects[purpose]
	if !ok {
		return Message{}, fmt.Errorf("no template for purpose %q", purpose)
	}
	return Message{
		To:      to,
		Subject: subject,
		Text:    fmt.Sprintf(otpTextTemplate, code),
		HTML:    fmt.Sprintf(otpHTMLTemplate, subject, code),
	}, nil
}
