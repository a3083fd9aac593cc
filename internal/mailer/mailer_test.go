package mailer

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSender_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s := NewConsoleSender()
	err := s.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "ログイン認証コード",
		Text:    "あなたの認証コードは 123456 です。このコードは10分間有効です。",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[mail][console]")
	assert.Contains(t, out, "user@example.com")
	assert.Contains(t, out, "ログイン認証コード")
	assert.Contains(t, out, "123456")
}
