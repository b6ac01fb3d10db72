package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	// Register charset decoders (iso-2022-jp, shift_jis, windows-1252, ...)
	// so that attachment names in legacy encodings decode correctly.
	_ "github.com/emersion/go-message/charset"
)

// parseMessage reads the Date header and every named attachment of a raw
// RFC 5322 message.
func parseMessage(raw []byte) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	date, err := mr.Header.Date()
	if err != nil {
		return nil, fmt.Errorf("reading Date header: %w", err)
	}
	if date.IsZero() {
		return nil, errors.New("message has no Date header")
	}

	parsed := &ParsedMessage{Date: DeclaredTimeOf(date)}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("reading message part: %w", err)
		}
		if part == nil {
			continue
		}

		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, _ := h.Filename()
		if filename == "" {
			continue
		}
		contentType, _, _ := h.ContentType()

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %q: %w", filename, err)
		}

		parsed.Attachments = append(parsed.Attachments, Attachment{
			Filename: filename,
			MIMEType: contentType,
			Content:  body,
		})
	}

	return parsed, nil
}
