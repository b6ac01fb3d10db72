package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/case-ingest/internal/model"
)

func TestLoadLastUpdate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *model.LastUpdate
		wantErr bool
	}{
		{
			name:    "valid",
			content: `{"datetime": "2023-05-01T10:00:00+09:00"}`,
			want:    &model.LastUpdate{Datetime: time.Date(2023, 5, 1, 1, 0, 0, 0, time.UTC)},
		},
		{name: "malformed", content: `{"datetime": `, wantErr: true},
		{name: "missing datetime", content: `{}`, wantErr: true},
		{name: "not a timestamp", content: `{"datetime": "yesterday"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileLastUpdate), []byte(tt.content), 0o644))

			got, err := NewJSONStore(dir).LoadLastUpdate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.Datetime.Equal(tt.want.Datetime), "got %s", got.Datetime)
		})
	}
}

func TestLoadLastUpdateMissing(t *testing.T) {
	got, err := NewJSONStore(t.TempDir()).LoadLastUpdate()

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewJSONStore(dir)
	lastUpdate := time.Date(2023, 5, 1, 1, 0, 0, 0, time.UTC)

	// A stale file is overwritten.
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNews), []byte(`stale`), 0o644))

	err := s.WriteArtifacts(Artifacts{
		Inspections: &model.Summary{
			Data:       []model.SummaryContent{{Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), Sum: 20}},
			LastUpdate: lastUpdate,
		},
		LastUpdate:  &model.LastUpdate{Datetime: lastUpdate},
		MainSummary: &model.Status{Attr: model.AttributeInspections, Value: 120, LastUpdate: &lastUpdate},
		News: &model.NewsItems{NewsItems: []model.NewsItem{
			{Date: model.Date{Year: 2023, Month: time.May, Day: 1}, Text: "opened"},
		}},
		Patients: model.NewSummary(lastUpdate),
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		FileInspectionsSummary,
		FileLastUpdate,
		FileMainSummary,
		FileNews,
		FilePatientsSummary,
	}, names, "no temporary files are left behind")

	news, err := os.ReadFile(filepath.Join(dir, FileNews))
	require.NoError(t, err)
	assert.JSONEq(t, `{"news_items":[{"date":"2023-05-01","text":"opened","url":""}]}`, string(news))
	assert.Contains(t, string(news), "\n  ", "output is indented")

	var patients map[string]any
	data, err := os.ReadFile(filepath.Join(dir, FilePatientsSummary))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &patients))
	assert.Equal(t, []any{}, patients["data"])
	assert.Equal(t, "2023-05-01T01:00:00Z", patients["last_update"])

	got, err := s.LoadLastUpdate()
	require.NoError(t, err)
	assert.True(t, got.Datetime.Equal(lastUpdate))
}
