package email

import (
	"context"
	"errors"
	"testing"

	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_ConsoleMode(t *testing.T) {
	svc := NewService("from@example.com", "Beauty OS", "https://app.beautyos.test", "", logger.Discard())
	assert.False(t, svc.useSendGrid)
	assert.Nil(t, svc.send)

	sent, err := svc.SendMagicLink(context.Background(), "owner@glow.com", "tok", "Glow")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestNewService_SendGridMode(t *testing.T) {
	svc := NewService("from@example.com", "Beauty OS", "https://app.beautyos.test", "SG.test-key", logger.Discard())
	assert.True(t, svc.useSendGrid)
	assert.NotNil(t, svc.send)
}

func TestVerifyURL(t *testing.T) {
	svc := NewService("from@example.com", "Beauty OS", "https://app.beautyos.test", "", logger.Discard())
	assert.Equal(t, "https://app.beautyos.test/auth/verify?token=abc-_123", svc.VerifyURL("abc-_123"))
}

func TestSendMagicLink_SendGrid(t *testing.T) {
	svc := NewService("from@example.com", "Beauty OS", "https://app.beautyos.test", "SG.test-key", logger.Discard())

	var captured *mail.SGMailV3
	svc.send = func(msg *mail.SGMailV3) (int, string, error) {
		captured = msg
		return 202, "", nil
	}

	sent, err := svc.SendMagicLink(context.Background(), "owner@glow.com", "tok123", "Glow")
	require.NoError(t, err)
	assert.True(t, sent)

	require.NotNil(t, captured)
	assert.Equal(t, "Sign in to Glow — Beauty OS", captured.Subject)
	require.Len(t, captured.Content, 2)
	assert.Contains(t, captured.Content[1].Value, "https://app.beautyos.test/auth/verify?token=tok123")
	assert.Contains(t, captured.Content[1].Value, "15 minutes")

	t.Run("Error status", func(t *testing.T) {
		svc.send = func(*mail.SGMailV3) (int, string, error) { return 401, "unauthorized", nil }
		sent, err := svc.SendMagicLink(context.Background(), "owner@glow.com", "tok", "Glow")
		assert.Error(t, err)
		assert.False(t, sent)
	})

	t.Run("Transport error", func(t *testing.T) {
		svc.send = func(*mail.SGMailV3) (int, string, error) { return 0, "", errors.New("dial tcp") }
		_, err := svc.SendMagicLink(context.Background(), "owner@glow.com", "tok", "Glow")
		assert.Error(t, err)
	})
}
