package email

import (
	"context"
	"io"
	"testing"

	"github.com/emersion/go-sasl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maylhq/mayl/config"
)

type mockSMTP struct {
	address string
	auth    sasl.Client
	from    string
	to      []string
	message []byte
	called  bool
	err     error
}

func (m *mockSMTP) SendMail(addr string, a sasl.Client, from string, to []string, r io.Reader) error {
	m.called = true
	m.address = addr
	m.auth = a
	m.from = from
	m.to = to
	msg, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.message = msg
	return m.err
}

func TestSMTPSenderSend(t *testing.T) {
	testSMTP := new(mockSMTP)

	testSender := &SMTPSender{
		addr:     "relay.example.com:587",
		creds:    NewCredentials("relayuser", "relaypass"),
		smtpSend: testSMTP.SendMail,
	}

	msg := &Message{
		From:    "Some Name <sender@example.com>",
		To:      []string{"to@example.org"},
		Subject: "subject",
		Body:    "This is a test",
	}

	err := testSender.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, testSMTP.called)
	assert.Equal(t, "relay.example.com:587", testSMTP.address)
	assert.Equal(t, "sender@example.com", testSMTP.from, "envelope sender must be the bare address")
	assert.Equal(t, []string{"to@example.org"}, testSMTP.to)
	assert.NotNil(t, testSMTP.auth)
	assert.Contains(t, string(testSMTP.message), "Subject: subject\r\n")
	assert.Contains(t, string(testSMTP.message), "This is a test")
}

func TestSMTPSenderSendUnauthenticated(t *testing.T) {
	testSMTP := new(mockSMTP)

	testSender := &SMTPSender{
		addr:     "localhost:1025",
		creds:    NewCredentials("", ""),
		smtpSend: testSMTP.SendMail,
	}

	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"to@example.org"},
		Subject: "subject",
		Body:    "body",
	}

	err := testSender.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, testSMTP.called)
	assert.Nil(t, testSMTP.auth, "no SASL client when no user is configured")
}

func TestSMTPSenderSendFailure(t *testing.T) {
	testSMTP := &mockSMTP{err: assert.AnError}

	testSender := &SMTPSender{
		addr:     "localhost:1025",
		creds:    NewCredentials("", ""),
		smtpSend: testSMTP.SendMail,
	}

	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"to@example.org"},
		Subject: "subject",
		Body:    "body",
	}

	err := testSender.Send(context.Background(), msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNewEmailSender(t *testing.T) {
	creds := NewCredentials("", "")

	sender := NewEmailSender(&config.Config{EmailProvider: ProviderLog}, creds)
	assert.IsType(t, &LogSender{}, sender)

	sender = NewEmailSender(&config.Config{
		EmailProvider: ProviderSMTP,
		SMTPHost:      "localhost",
		SMTPPort:      1025,
	}, creds)
	require.IsType(t, &SMTPSender{}, sender)
	assert.Equal(t, "localhost:1025", sender.(*SMTPSender).addr)
}
