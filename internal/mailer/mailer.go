package mailer

import (
	"context"
	"log"
)

// Message — одно исходящее письмо: plain-text и HTML-версии тела.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleSender — fallback, когда транспорт не настроен: письмо целиком
// уходит в лог, код остаётся действительным.
type ConsoleSender struct{}

func NewConsoleSender() *ConsoleSender { return &ConsoleSender{} }

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	log.Printf("[mail][console] to=%s subject=%q body=%q", msg.To, msg.Subject, msg.Text)
	return nil
}
