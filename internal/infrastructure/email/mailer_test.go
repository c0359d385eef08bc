package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/application/notification"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	m, err := New(config.EmailConfig{Driver: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = New(config.EmailConfig{Driver: "smtp", Host: "mail.local", Port: 2525}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", m.(*SMTPMailer).addr)

	_, err = New(config.EmailConfig{Driver: "smtp"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(config.EmailConfig{Driver: "pigeon"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{
		Host:     "mail.local",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "no-reply@unimerch.local",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	err := m.Send(context.Background(), notification.Message{
		To:      "an@example.com",
		Subject: "Đặt lại mật khẩu",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	require.NoError(t, err)

	body := string(gotBody)
	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, "no-reply@unimerch.local", gotFrom)
	assert.Equal(t, []string{"an@example.com"}, gotTo)
	assert.Contains(t, body, "To: an@example.com\r\n")
	assert.Contains(t, body, "Subject: =?utf-8?q?")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "plain body")
	assert.Contains(t, body, "<p>html body</p>")
	assert.Equal(t, 2, strings.Count(body, "Content-Transfer-Encoding: quoted-printable"))
}

func TestSMTPMailer_SendErrors(t *testing.T) {
	m := NewSMTPMailer(config.EmailConfig{Host: "mail.local", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := m.Send(context.Background(), notification.Message{To: "x@example.com", Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, notification.Message{To: "x@example.com"}), context.Canceled)
}

func TestBuildMIME_SkipsEmptyParts(t *testing.T) {
	body, err := buildMIME("a@b.c", notification.Message{To: "d@e.f", Subject: "s", Text: "only text"}, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(body), "text/html")
}

func TestLogMailer_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	require.NoError(t, m.Send(context.Background(), notification.Message{To: "an@example.com", Subject: "Hello", Text: "body"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "an@example.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "Hello", entries[0].ContextMap()["subject"])
}
