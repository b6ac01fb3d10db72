package email

import (
	"github.com/emersion/go-imap/v2"
)

// Mailbox is an authenticated mailbox session.
type Mailbox interface {
	// Select opens the named mailbox for the following commands.
	Select(name string) error

	// Search returns the sequence numbers of messages matching criteria.
	Search(criteria *imap.SearchCriteria) ([]uint32, error)

	// Fetch returns the full RFC 5322 bytes of the given messages.
	Fetch(seqNums []uint32) ([]RawMessage, error)

	// Logout ends the session and closes the connection.
	Logout() error
}

// RawMessage is one fetched message.
type RawMessage struct {
	SeqNum uint32
	Body   []byte
}

// Attachment is a named attachment part of a message.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// ParsedMessage holds what selection needs from a fetched message.
type ParsedMessage struct {
	Date        DeclaredTime
	Attachments []Attachment
}
