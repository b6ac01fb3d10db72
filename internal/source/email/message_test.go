package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/case-ingest/tests/testutil"
)

func TestParseMessage(t *testing.T) {
	raw := testutil.RawMessage("Mon, 01 May 2023 10:00:00 +0900",
		testutil.MessageAttachment{Filename: "notes.txt", Content: []byte("n/a")},
		testutil.MessageAttachment{Filename: "20230501data.xlsx", Content: []byte("PK\x03\x04")},
	)

	parsed, err := parseMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, DeclaredTime{
		Year: 2023, Month: time.May, Day: 1, Hour: 10,
		ZoneHour: 9,
	}, parsed.Date)

	require.Len(t, parsed.Attachments, 2)
	assert.Equal(t, "notes.txt", parsed.Attachments[0].Filename)
	assert.Equal(t, "20230501data.xlsx", parsed.Attachments[1].Filename)
	assert.Equal(t, []byte("PK\x03\x04"), parsed.Attachments[1].Content)
}

func TestParseMessageWithoutAttachments(t *testing.T) {
	parsed, err := parseMessage(testutil.RawMessage("Sun, 30 Apr 2023 22:30:00 -0500"))
	require.NoError(t, err)

	assert.True(t, parsed.Date.BeforeGMT)
	assert.Equal(t, 5, parsed.Date.ZoneHour)
	assert.Empty(t, parsed.Attachments)
}

func TestParseMessageMissingDate(t *testing.T) {
	raw := strings.Join([]string{
		"From: stats@example.org",
		"Subject: no date",
		"Content-Type: text/plain",
		"",
		"body",
		"",
	}, "\r\n")

	_, err := parseMessage([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Date")
}
