package email

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/case-ingest/internal/source"
)

// IMAPClient wraps go-imap v2 for connecting to and authenticating with an
// IMAP server over implicit TLS.
type IMAPClient struct {
	host  string
	port  int
	creds Credentials
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(host string, port int, creds Credentials) *IMAPClient {
	return &IMAPClient{
		host:  host,
		port:  port,
		creds: creds,
	}
}

// Connect establishes a TLS connection to the IMAP server, authenticates,
// and returns the session. The caller is responsible for calling Logout.
func (c *IMAPClient) Connect(_ context.Context) (Mailbox, error) {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, &source.TransportError{Address: addr, Err: err}
	}

	if err := c.creds.authenticate(client, c.host, c.port); err != nil {
		_ = client.Close()
		return nil, &source.AuthError{
			SourceType: source.SourceTypeEmail,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.creds.Username(), err,
			),
			Err: err,
		}
	}

	return &session{client: client}, nil
}

// session adapts an authenticated imapclient.Client to Mailbox.
type session struct {
	client *imapclient.Client
}

func (s *session) Select(name string) error {
	_, err := s.client.Select(name, &imap.SelectOptions{ReadOnly: true}).Wait()
	return err
}

func (s *session) Search(criteria *imap.SearchCriteria) ([]uint32, error) {
	data, err := s.client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllSeqNums(), nil
}

func (s *session) Fetch(seqNums []uint32) ([]RawMessage, error) {
	if len(seqNums) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	bufs, err := s.client.Fetch(imap.SeqSetNum(seqNums...), fetchOpts).Collect()
	if err != nil {
		return nil, err
	}

	messages := make([]RawMessage, 0, len(bufs))
	for _, buf := range bufs {
		messages = append(messages, RawMessage{
			SeqNum: buf.SeqNum,
			Body:   buf.FindBodySection(bodySection),
		})
	}

	return messages, nil
}

func (s *session) Logout() error {
	err := s.client.Logout().Wait()
	_ = s.client.Close()
	return err
}
