// internal/store/memory/memory_test.go
package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{Title: "Oil demand", Country: "India", Region: "Southern Asia", Topic: "oil", EndYear: models.IntPtr(2020), Intensity: 6, Relevance: 2, Likelihood: 3},
		{Title: "Gas prices", Country: "India", Region: "Southern Asia", Topic: "gas", EndYear: models.IntPtr(2021), Intensity: 4, Relevance: 3, Likelihood: 2},
		{Title: "Oil demand", Country: "Nepal", Region: "Southern Asia", Topic: "oil", EndYear: models.IntPtr(2020), Intensity: 8, Relevance: 4, Likelihood: 4},
		{Title: "Untimed", Country: "", Region: "World", Topic: "oil", Intensity: 1, Relevance: 1, Likelihood: 1},
	}
}

func openSession(t *testing.T, s *Store) *session {
	t.Helper()
	sess, err := s.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess.(*session)
}

func TestFind(t *testing.T) {
	sess := openSession(t, NewFromRecords(sampleRecords()))

	tests := []struct {
		name   string
		query  models.Query
		titles []string
	}{
		{"empty query returns everything", models.Query{}, []string{"Oil demand", "Gas prices", "Oil demand", "Untimed"}},
		{"single field", models.Query{models.FieldCountry: models.String("India")}, []string{"Oil demand", "Gas prices"}},
		{"conjunction with numeric year", models.Query{models.FieldEndYear: models.Number(2020), models.FieldTopic: models.String("oil")}, []string{"Oil demand", "Oil demand"}},
		{"string year never matches the numeric field", models.Query{models.FieldEndYear: models.String("2020")}, nil},
		{"no match", models.Query{models.FieldCountry: models.String("Chile")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := sess.Find(context.Background(), tt.query)
			require.NoError(t, err)
			require.NotNil(t, records)

			var titles []string
			for _, r := range records {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestDistinct(t *testing.T) {
	sess := openSession(t, NewFromRecords(sampleRecords()))

	countries, err := sess.Distinct(context.Background(), models.FieldCountry)
	require.NoError(t, err)
	assert.Equal(t, []string{"India", "Nepal"}, countries, "empty strings are dropped")

	years, err := sess.Distinct(context.Background(), models.FieldEndYear)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, years, "unset years are dropped")
}

func TestOpen_MissingPathIsConfigurationError(t *testing.T) {
	_, err := New("").Open(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.json")).Open(context.Background())
	require.Error(t, err)
	assert.False(t, apperrors.IsConfigurationError(err))
}

func TestFileBackedInsertAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	s := New(path)
	sess := openSession(t, s)

	n, err := sess.Insert(context.Background(), sampleRecords()[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	again := openSession(t, s)
	records, err := again.Find(context.Background(), models.Query{models.FieldTopic: models.String("gas")})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2021, *records[0].EndYear)
}

func TestClosedSession(t *testing.T) {
	sess, err := NewFromRecords(nil).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = sess.Find(context.Background(), models.Query{})
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, sess.Close(), ErrSessionClosed)
}
