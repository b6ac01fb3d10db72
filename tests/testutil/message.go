package testutil

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MessageAttachment is an attachment of a synthesised message.
type MessageAttachment struct {
	Filename string
	Content  []byte
}

// RawMessage renders a multipart/mixed RFC 5322 message with the given Date
// header value (e.g. "Mon, 01 May 2023 10:00:00 +0900") and attachments.
func RawMessage(date string, attachments ...MessageAttachment) []byte {
	const boundary = "case-ingest-boundary"

	lines := []string{
		"Date: " + date,
		"From: Statistics Office <stats@example.org>",
		"To: feed@example.org",
		"Subject: daily statistics",
		"MIME-Version: 1.0",
		fmt.Sprintf(`Content-Type: multipart/mixed; boundary="%s"`, boundary),
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Daily statistics attached.",
	}

	for _, att := range attachments {
		lines = append(lines,
			"--"+boundary,
			"Content-Type: application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf(`Content-Disposition: attachment; filename="%s"`, att.Filename),
			"Content-Transfer-Encoding: base64",
			"",
			base64.StdEncoding.EncodeToString(att.Content),
		)
	}

	lines = append(lines, "--"+boundary+"--", "")

	return []byte(strings.Join(lines, "\r\n"))
}
