package email

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/emersion/go-imap/v2"
)

// imapDateLayout is the date format of IMAP SEARCH keys (RFC 3501 date).
const imapDateLayout = "2-Jan-2006"

// ParseQuery converts an IMAP SEARCH key string, as typed on the command
// line (e.g. `FROM "notify@example.org" SINCE 1-Apr-2023 UNSEEN`), into
// search criteria. Adjacent keys are combined with AND.
func ParseQuery(query string) (*imap.SearchCriteria, error) {
	tokens, err := tokenizeQuery(query)
	if err != nil {
		return nil, err
	}

	p := &queryParser{tokens: tokens}
	criteria := &imap.SearchCriteria{}

	for !p.done() {
		if err := p.parseKey(criteria); err != nil {
			return nil, fmt.Errorf("parsing query %q: %w", query, err)
		}
	}

	return criteria, nil
}

type queryToken struct {
	text   string
	quoted bool
}

func tokenizeQuery(query string) ([]queryToken, error) {
	var (
		tokens []queryToken
		buf    strings.Builder
	)

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, queryToken{text: buf.String()})
			buf.Reset()
		}
	}

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			flush()

		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, queryToken{text: string(r)})

		case r == '"':
			flush()
			var quoted strings.Builder
			closed := false
			for i++; i < len(runes); i++ {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					quoted.WriteRune(runes[i])
					continue
				}
				if runes[i] == '"' {
					closed = true
					break
				}
				quoted.WriteRune(runes[i])
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted string in query %q", query)
			}
			tokens = append(tokens, queryToken{text: quoted.String(), quoted: true})

		default:
			buf.WriteRune(r)
		}
	}
	flush()

	return tokens, nil
}

type queryParser struct {
	tokens []queryToken
	pos    int
}

func (p *queryParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *queryParser) next() (queryToken, error) {
	if p.done() {
		return queryToken{}, fmt.Errorf("unexpected end of query")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *queryParser) arg(key string) (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", fmt.Errorf("%s: missing argument", key)
	}
	return tok.text, nil
}

func (p *queryParser) date(key string) (time.Time, error) {
	s, err := p.arg(key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(imapDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q (expected e.g. 1-Apr-2023)", key, s)
	}
	return t, nil
}

func (p *queryParser) number(key string) (int64, error) {
	s, err := p.arg(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid size %q", key, s)
	}
	return n, nil
}

var headerKeys = map[string]string{
	"FROM":    "From",
	"TO":      "To",
	"CC":      "Cc",
	"BCC":     "Bcc",
	"SUBJECT": "Subject",
}

var flagKeys = map[string]imap.Flag{
	"ANSWERED": imap.FlagAnswered,
	"DELETED":  imap.FlagDeleted,
	"DRAFT":    imap.FlagDraft,
	"FLAGGED":  imap.FlagFlagged,
	"SEEN":     imap.FlagSeen,
}

var notFlagKeys = map[string]imap.Flag{
	"UNANSWERED": imap.FlagAnswered,
	"UNDELETED":  imap.FlagDeleted,
	"UNDRAFT":    imap.FlagDraft,
	"UNFLAGGED":  imap.FlagFlagged,
	"UNSEEN":     imap.FlagSeen,
}

// parseKey consumes one search key (with its arguments) into c.
func (p *queryParser) parseKey(c *imap.SearchCriteria) error {
	tok, err := p.next()
	if err != nil {
		return err
	}

	if tok.quoted {
		return fmt.Errorf("unexpected string %q where a search key was expected", tok.text)
	}

	key := strings.ToUpper(tok.text)

	if field, ok := headerKeys[key]; ok {
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: field, Value: value})
		return nil
	}
	if flag, ok := flagKeys[key]; ok {
		c.Flag = append(c.Flag, flag)
		return nil
	}
	if flag, ok := notFlagKeys[key]; ok {
		c.NotFlag = append(c.NotFlag, flag)
		return nil
	}

	switch key {
	case "ALL":
		return nil

	case "(":
		for {
			if p.done() {
				return fmt.Errorf("unbalanced parenthesis")
			}
			if p.tokens[p.pos].text == ")" && !p.tokens[p.pos].quoted {
				p.pos++
				return nil
			}
			if err := p.parseKey(c); err != nil {
				return err
			}
		}

	case ")":
		return fmt.Errorf("unbalanced parenthesis")

	case "KEYWORD", "UNKEYWORD":
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		if key == "KEYWORD" {
			c.Flag = append(c.Flag, imap.Flag(value))
		} else {
			c.NotFlag = append(c.NotFlag, imap.Flag(value))
		}

	case "HEADER":
		field, err := p.arg(key)
		if err != nil {
			return err
		}
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: field, Value: value})

	case "BODY":
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Body = append(c.Body, value)

	case "TEXT":
		value, err := p.arg(key)
		if err != nil {
			return err
		}
		c.Text = append(c.Text, value)

	case "SINCE", "BEFORE", "ON", "SENTSINCE", "SENTBEFORE", "SENTON":
		day, err := p.date(key)
		if err != nil {
			return err
		}
		narrowDates(c, key, day)

	case "LARGER":
		if c.Larger, err = p.number(key); err != nil {
			return err
		}

	case "SMALLER":
		if c.Smaller, err = p.number(key); err != nil {
			return err
		}

	case "NOT":
		var sub imap.SearchCriteria
		if err := p.parseKey(&sub); err != nil {
			return fmt.Errorf("NOT: %w", err)
		}
		c.Not = append(c.Not, sub)

	case "OR":
		var left, right imap.SearchCriteria
		if err := p.parseKey(&left); err != nil {
			return fmt.Errorf("OR: %w", err)
		}
		if err := p.parseKey(&right); err != nil {
			return fmt.Errorf("OR: %w", err)
		}
		c.Or = append(c.Or, [2]imap.SearchCriteria{left, right})

	default:
		return fmt.Errorf("unsupported search key %q", tok.text)
	}

	return nil
}

// narrowDates applies a date key to c. Keys combine with AND, so a repeated
// lower bound keeps the latest date and a repeated upper bound the earliest.
func narrowDates(c *imap.SearchCriteria, key string, day time.Time) {
	switch key {
	case "SINCE":
		c.Since = later(c.Since, day)
	case "BEFORE":
		c.Before = earlier(c.Before, day)
	case "ON":
		c.Since = later(c.Since, day)
		c.Before = earlier(c.Before, day.AddDate(0, 0, 1))
	case "SENTSINCE":
		c.SentSince = later(c.SentSince, day)
	case "SENTBEFORE":
		c.SentBefore = earlier(c.SentBefore, day)
	case "SENTON":
		c.SentSince = later(c.SentSince, day)
		c.SentBefore = earlier(c.SentBefore, day.AddDate(0, 0, 1))
	}
}

// later returns the later of a bound and day; a zero bound is unset.
func later(bound, day time.Time) time.Time {
	if bound.IsZero() || day.After(bound) {
		return day
	}
	return bound
}

// earlier returns the earlier of a bound and day; a zero bound is unset.
func earlier(bound, day time.Time) time.Time {
	if bound.IsZero() || day.Before(bound) {
		return day
	}
	return bound
}
