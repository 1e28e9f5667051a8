// Package email contains the outbound SMTP relay client and message
// construction for the dispatcher.
package email

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/maylhq/mayl/config"
)

const (
	// ProviderLog is the provider name for the LogSender implementation of the Sender interface
	ProviderLog = "LOG"
	// ProviderSMTP is the provider name for the SMTPSender implementation of the Sender interface
	ProviderSMTP = "SMTP"
)

// Sender defines the interface to send emails. The relay is an opaque fallible
// collaborator: one call attempts one delivery.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg *Message) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// NewEmailSender returns an initialized Sender implementation according to the
// provider configured in cfg.EmailProvider.
func NewEmailSender(cfg *config.Config, creds *Credentials) Sender {
	switch cfg.EmailProvider {
	case ProviderLog:
		return &LogSender{}
	default:
		// ProviderSMTP is the default
		return &SMTPSender{
			addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
			creds:    creds,
			smtpSend: smtp.SendMail,
		}
	}
}

// LogSender is a Sender implementation that logs email messages instead of
// delivering them. Useful for local development.
type LogSender struct{}

// Send simulates sending an email by logging the given message.
func (l *LogSender) Send(_ context.Context, msg *Message) error {
	glog.Infof("LogSender.Send called with: from: %q, to: %q, subject: %q", msg.From, msg.To, msg.Subject)
	return nil
}

type smtpSendFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPSender is the default Sender implementation. It submits messages to a
// single SMTP relay, authenticating with SASL PLAIN when credentials are
// configured. The send function is injectable for tests.
type SMTPSender struct {
	addr     string
	creds    *Credentials
	smtpSend smtpSendFunc
}

// Send builds the RFC 822 message and submits it to the relay. Any transport
// failure, timeouts included, is returned as an ordinary error; the caller
// decides whether to surface or retry it.
func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	raw, err := msg.Build()
	if err != nil {
		return errors.Wrap(err, "failed to build message")
	}

	var auth sasl.Client
	if user, pass := s.creds.Get(); user != "" {
		auth = sasl.NewPlainClient("", user, pass)
	}

	if err := s.smtpSend(s.addr, auth, msg.EnvelopeFrom(), msg.To, bytes.NewReader(raw)); err != nil {
		return errors.Wrapf(err, "smtp send via %s", s.addr)
	}
	return nil
}
