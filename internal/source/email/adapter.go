package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/emersion/go-imap/v2"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/source"
)

// DefaultFetchSize is the number of messages requested per FETCH.
const DefaultFetchSize = 4

// Options controls how the mailbox is scanned.
type Options struct {
	Mailbox   string
	Criteria  *imap.SearchCriteria
	FetchSize int
	Pattern   *regexp.Regexp

	// LocalOffset is the runtime's offset from UTC in seconds, captured
	// once at the start of the run.
	LocalOffset int
}

// Adapter implements source.Source for a remote IMAP mailbox.
type Adapter struct {
	dial   func(ctx context.Context) (Mailbox, error)
	opts   Options
	logger *log.Logger
}

// NewAdapter creates an email source that scans the mailbox reached
// through client.
func NewAdapter(client *IMAPClient, opts Options, logger *log.Logger) *Adapter {
	return newAdapter(client.Connect, opts, logger)
}

func newAdapter(
	dial func(ctx context.Context) (Mailbox, error),
	opts Options,
	logger *log.Logger,
) *Adapter {
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	if opts.FetchSize < 1 {
		opts.FetchSize = DefaultFetchSize
	}
	if opts.Criteria == nil {
		opts.Criteria = &imap.SearchCriteria{}
	}

	return &Adapter{
		dial:   dial,
		opts:   opts,
		logger: logger.With("source", source.SourceTypeEmail),
	}
}

// Type returns the source type identifier for Email.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeEmail
}

// Locate searches the mailbox newest-first, FetchSize messages at a time,
// and stops at the first attachment whose name matches the pattern. An
// accepted attachment is written to dir.
func (a *Adapter) Locate(
	ctx context.Context,
	dir string,
	prev *model.LastUpdate,
) (source.Outcome, error) {
	a.logger.Info("establishing IMAP session")

	mbox, err := a.dial(ctx)
	if err != nil {
		return source.Outcome{}, err
	}
	defer func() {
		a.logger.Info("logging out of IMAP server")
		if err := mbox.Logout(); err != nil {
			a.logger.Warn("logout failed", "err", err)
		}
	}()

	if err := mbox.Select(a.opts.Mailbox); err != nil {
		return source.Outcome{}, &source.ProtocolError{
			Command: "SELECT " + a.opts.Mailbox,
			Err:     err,
		}
	}

	seqNums, err := mbox.Search(a.opts.Criteria)
	if err != nil {
		return source.Outcome{}, &source.ProtocolError{Command: "SEARCH", Err: err}
	}

	slices.Sort(seqNums)
	slices.Reverse(seqNums)

	a.logger.Info("fetching messages", "mailbox", a.opts.Mailbox, "matches", len(seqNums))

	gate := source.NewGate(a.opts.Pattern, prev)

	for batch := range slices.Chunk(seqNums, a.opts.FetchSize) {
		if err := ctx.Err(); err != nil {
			return source.Outcome{}, err
		}

		messages, err := mbox.Fetch(batch)
		if err != nil {
			return source.Outcome{}, &source.ProtocolError{
				Command: fmt.Sprintf("FETCH %v", batch),
				Err:     err,
			}
		}

		slices.SortFunc(messages, func(x, y RawMessage) int {
			switch {
			case x.SeqNum > y.SeqNum:
				return -1
			case x.SeqNum < y.SeqNum:
				return 1
			default:
				return 0
			}
		})

		a.logger.Debug("fetched batch", "batch", batch, "messages", len(messages))

		for _, raw := range messages {
			outcome, decided, err := a.inspect(raw, gate, dir)
			if err != nil {
				return source.Outcome{}, err
			}
			if decided {
				return outcome, nil
			}
		}
	}

	return source.Outcome{Kind: source.NotFound}, nil
}

// inspect parses one message and offers its attachments to the gate.
func (a *Adapter) inspect(
	raw RawMessage,
	gate *source.Gate,
	dir string,
) (source.Outcome, bool, error) {
	parsed, err := parseMessage(raw.Body)
	if err != nil {
		return source.Outcome{}, false, &source.FormatError{
			File:    fmt.Sprintf("message %d", raw.SeqNum),
			Message: "unparseable message",
			Err:     err,
		}
	}

	instant := parsed.Date.Resolve(a.opts.LocalOffset)

	for _, att := range parsed.Attachments {
		outcome, decided := gate.Consider(source.Candidate{
			Name:    att.Filename,
			Content: att.Content,
			Instant: instant,
		})
		if !decided {
			continue
		}

		a.logger.Info("matched attachment",
			"message", raw.SeqNum,
			"attachment", att.Filename,
			"instant", instant,
		)

		if outcome.Kind == source.Accepted {
			path, err := writeAttachment(dir, att)
			if err != nil {
				return source.Outcome{}, false, err
			}
			outcome.Path = path
		}

		return outcome, true, nil
	}

	return source.Outcome{}, false, nil
}

// writeAttachment stores an attachment under dir using the base of its
// declared file name.
func writeAttachment(dir string, att Attachment) (string, error) {
	path := filepath.Join(dir, filepath.Base(att.Filename))

	if err := os.WriteFile(path, att.Content, 0o600); err != nil {
		return "", fmt.Errorf("saving attachment %s: %w", att.Filename, err)
	}

	return path, nil
}
