package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer(t *testing.T) {
	t.Run("accepts host:port addresses", func(t *testing.T) {
		m := NewSMTPMailer("smtp.example.com:587", "noreply@example.com", "user", "secret")
		assert.NotNil(t, m)
	})

	t.Run("accepts a bare host as the auth host", func(t *testing.T) {
		m := NewSMTPMailer("smtp.example.com", "noreply@example.com", "user", "secret")
		assert.NotNil(t, m)
	})

	t.Run("skips auth without a username", func(t *testing.T) {
		m := NewSMTPMailer("smtp.example.com:25", "noreply@example.com", "", "")
		assert.Nil(t, m.auth)
	})
}

func TestMemoryMailer(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMailer()

	require.NoError(t, m.Send(ctx, "ana@example.com", "Hi", "body"))
	require.Len(t, m.Messages(), 1)
	assert.Equal(t, "ana@example.com", m.Messages()[0].To)

	m.Err = errors.New("relay refused")
	assert.Error(t, m.Send(ctx, "ana@example.com", "Hi", "body"))
	assert.Len(t, m.Messages(), 1)
}
