package email

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

// Message is a fully formed outbound email: envelope addresses plus the
// subject and bodies. HTML is optional; when set the message is rendered as
// multipart/alternative with the plain text part first.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	HTML    string
}

// EnvelopeFrom returns the bare address to use as the SMTP envelope sender,
// stripping any display name from From.
func (m *Message) EnvelopeFrom() string {
	addr, err := mail.ParseAddress(m.From)
	if err != nil {
		return m.From
	}
	return addr.Address
}

// Build renders the message as RFC 822 bytes ready for SMTP submission.
func (m *Message) Build() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if m.HTML == "" {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(m.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n", mw.Boundary())
	buf.WriteString("\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create text part")
	}
	if _, err := textPart.Write([]byte(m.Body)); err != nil {
		return nil, errors.Wrap(err, "failed to write text part")
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create html part")
	}
	if _, err := htmlPart.Write([]byte(m.HTML)); err != nil {
		return nil, errors.Wrap(err, "failed to write html part")
	}

	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish multipart message")
	}
	return buf.Bytes(), nil
}
