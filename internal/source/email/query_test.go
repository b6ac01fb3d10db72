package email

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	apr1 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		want  *imap.SearchCriteria
	}{
		{
			name:  "all",
			query: "ALL",
			want:  &imap.SearchCriteria{},
		},
		{
			name:  "header and date keys",
			query: `FROM "stats@example.org" since 1-Apr-2023 UNSEEN`,
			want: &imap.SearchCriteria{
				Header:  []imap.SearchCriteriaHeaderField{{Key: "From", Value: "stats@example.org"}},
				Since:   apr1,
				NotFlag: []imap.Flag{imap.FlagSeen},
			},
		},
		{
			name:  "quoted subject with escaped quote",
			query: `SUBJECT "daily \"data\" report"`,
			want: &imap.SearchCriteria{
				Header: []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: `daily "data" report`}},
			},
		},
		{
			name:  "on expands to a one day window",
			query: "ON 1-Apr-2023",
			want: &imap.SearchCriteria{
				Since:  apr1,
				Before: apr1.AddDate(0, 0, 1),
			},
		},
		{
			name:  "repeated bounds keep the narrowest window",
			query: "SINCE 1-May-2023 SINCE 1-Apr-2023 BEFORE 1-Jun-2023 BEFORE 10-May-2023",
			want: &imap.SearchCriteria{
				Since:  time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
				Before: time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "sent bounds combine with senton",
			query: "SENTSINCE 1-Mar-2023 SENTON 2-Apr-2023 SENTBEFORE 30-Apr-2023",
			want: &imap.SearchCriteria{
				SentSince:  time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC),
				SentBefore: time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "not and or",
			query: `NOT SEEN OR FROM a@example.org FROM b@example.org`,
			want: &imap.SearchCriteria{
				Not: []imap.SearchCriteria{{Flag: []imap.Flag{imap.FlagSeen}}},
				Or: [][2]imap.SearchCriteria{{
					{Header: []imap.SearchCriteriaHeaderField{{Key: "From", Value: "a@example.org"}}},
					{Header: []imap.SearchCriteriaHeaderField{{Key: "From", Value: "b@example.org"}}},
				}},
			},
		},
		{
			name:  "parenthesised group",
			query: `(HEADER X-Feed covid LARGER 1024) BODY xlsx`,
			want: &imap.SearchCriteria{
				Header: []imap.SearchCriteriaHeaderField{{Key: "X-Feed", Value: "covid"}},
				Larger: 1024,
				Body:   []string{"xlsx"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.query)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseQuery(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestParseQueryErrors(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		errContains string
	}{
		{name: "unknown key", query: "FROBNICATE", errContains: "unsupported search key"},
		{name: "missing argument", query: "FROM", errContains: "missing argument"},
		{name: "bad date", query: "SINCE 2023-04-01", errContains: "invalid date"},
		{name: "unterminated string", query: `SUBJECT "open`, errContains: "unterminated"},
		{name: "unbalanced parenthesis", query: "(SEEN", errContains: "unbalanced"},
		{name: "stray string", query: `"hello"`, errContains: "unexpected string"},
		{name: "negative size", query: "SMALLER -1", errContains: "invalid size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
