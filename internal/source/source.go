package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/case-ingest/internal/model"
)

// SourceType identifies where a spreadsheet snapshot is obtained from.
type SourceType string

const (
	SourceTypeEmail SourceType = "email"
	SourceTypeLocal SourceType = "local"
)

// ErrAlreadyCurrent is returned when the newest snapshot is not newer than
// the last ingested revision. Callers must not retry automatically.
var ErrAlreadyCurrent = errors.New("data is already current, nothing to update")

// ErrNotFound is returned when no message carries a qualifying attachment.
var ErrNotFound = errors.New("no spreadsheet attachment found")

// AuthError indicates that authentication with the mailbox or the token
// endpoint failed.
type AuthError struct {
	SourceType SourceType
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// TransportError indicates a failed connection or TLS handshake.
type TransportError struct {
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError indicates a failed mailbox command (SELECT, SEARCH, FETCH).
type ProtocolError struct {
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (%s): %v", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// FormatError indicates unreadable or malformed input data. File names the
// offending file and, where relevant, the worksheet.
type FormatError struct {
	File    string
	Sheet   string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	where := e.File
	if e.Sheet != "" {
		where = fmt.Sprintf("%s [%s]", e.File, e.Sheet)
	}
	if e.Err != nil {
		return fmt.Sprintf("format error (%s): %s: %v", where, e.Message, e.Err)
	}
	return fmt.Sprintf("format error (%s): %s", where, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Kind classifies a run-terminating error.
type Kind int

const (
	KindNone Kind = iota
	KindConfig
	KindTransport
	KindAuth
	KindProtocol
	KindAlreadyCurrent
	KindNotFound
	KindFormat
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindAuth:
		return "authentication"
	case KindProtocol:
		return "protocol"
	case KindAlreadyCurrent:
		return "already-current"
	case KindNotFound:
		return "not-found"
	case KindFormat:
		return "format"
	default:
		return "other"
	}
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var (
		authErr      *AuthError
		transportErr *TransportError
		protocolErr  *ProtocolError
		formatErr    *FormatError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAlreadyCurrent):
		return KindAlreadyCurrent
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case model.IsConfigError(err):
		return KindConfig
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &protocolErr):
		return KindProtocol
	case errors.As(err, &formatErr):
		return KindFormat
	default:
		return KindOther
	}
}

// OutcomeKind tells which branch of attachment selection was taken.
type OutcomeKind int

const (
	NotFound OutcomeKind = iota
	Accepted
	Rejected
)

// Outcome is the immutable result of locating a spreadsheet snapshot.
type Outcome struct {
	Kind OutcomeKind

	// Path is the spreadsheet on disk. Set only when Accepted.
	Path string

	// Instant is the revision instant of the chosen (or rejected) snapshot.
	Instant time.Time
}

// Source locates the spreadsheet snapshot to ingest.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Locate finds the snapshot newer than prev (nil on a first run),
	// materialising it under dir when it has to be downloaded.
	Locate(ctx context.Context, dir string, prev *model.LastUpdate) (Outcome, error)
}
