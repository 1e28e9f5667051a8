package email

import (
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeFrom(t *testing.T) {
	msg := &Message{From: "Some Name <user@example.com>"}
	assert.Equal(t, "user@example.com", msg.EnvelopeFrom())

	msg = &Message{From: "user@example.com"}
	assert.Equal(t, "user@example.com", msg.EnvelopeFrom())
}

func TestBuildPlainText(t *testing.T) {
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"a@example.org", "b@example.org"},
		Subject: "hello",
		Body:    "plain body",
	}

	raw, err := msg.Build()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	assert.Equal(t, "sender@example.com", parsed.Header.Get("From"))
	assert.Equal(t, "a@example.org, b@example.org", parsed.Header.Get("To"))
	assert.Equal(t, "hello", parsed.Header.Get("Subject"))
	assert.Equal(t, "1.0", parsed.Header.Get("MIME-Version"))
	assert.Equal(t, "text/plain; charset=UTF-8", parsed.Header.Get("Content-Type"))

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "plain body\r\n", string(body))
}

func TestBuildMultipartAlternative(t *testing.T) {
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"a@example.org"},
		Subject: "hello",
		Body:    "plain body",
		HTML:    "<p>html body</p>",
	}

	raw, err := msg.Build()
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)
	require.NotEmpty(t, params["boundary"])

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	// Plain text part comes first so simple clients render it by default.
	textPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", textPart.Header.Get("Content-Type"))
	text, err := io.ReadAll(textPart)
	require.NoError(t, err)
	assert.Equal(t, "plain body", string(text))

	htmlPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=UTF-8", htmlPart.Header.Get("Content-Type"))
	html, err := io.ReadAll(htmlPart)
	require.NoError(t, err)
	assert.Equal(t, "<p>html body</p>", string(html))

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}
