// internal/explorer/criteria/criteria_test.go
package criteria

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-explorer/internal/models"
)

func TestNew_AllUnset(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())
	for _, f := range models.FilterFields {
		_, ok := s.Get(f)
		assert.False(t, ok, "field %s should be unset", f)
	}
	assert.Equal(t, "", s.Text())
}

func TestSet_GetClear(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(models.FieldCountry, "India"))
	require.NoError(t, s.Set(models.FieldEndYear, "2020"))

	v, ok := s.Get(models.FieldCountry)
	require.True(t, ok)
	assert.Equal(t, "India", v)

	s.Clear(models.FieldCountry)
	_, ok = s.Get(models.FieldCountry)
	assert.False(t, ok)

	s.ClearAll()
	assert.True(t, s.IsEmpty())
}

func TestSet_BlankValueUnsets(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(models.FieldTopic, "oil"))
	require.NoError(t, s.Set(models.FieldTopic, "   "))

	_, ok := s.Get(models.FieldTopic)
	assert.False(t, ok)
}

func TestSet_UnknownField(t *testing.T) {
	s := New()
	err := s.Set(models.Field("insight"), "x")
	require.ErrorIs(t, err, ErrUnknownField)
	assert.True(t, s.IsEmpty())
}

func TestFromValues_IgnoresUnknownAndEmpty(t *testing.T) {
	vals := url.Values{
		"country": {"India", "Nepal"},
		"topic":   {""},
		"swot":    {"Strength"},
		"page":    {"2"},
	}
	s := FromValues(vals)

	assert.Equal(t, []Entry{
		{Field: models.FieldCountry, Value: "India"},
		{Field: models.FieldSWOT, Value: "Strength"},
	}, s.Entries())
}

func TestText_FollowsFieldOrder(t *testing.T) {
	s := FromMap(map[string]string{"topic": "oil", "end_year": "2020", "country": "India"})
	assert.Equal(t, "Country: India, End_year: 2020, Topic: oil", s.Text())
}

func TestClone_IsIndependent(t *testing.T) {
	s := FromMap(map[string]string{"region": "Asia"})
	c := s.Clone()
	c.Clear(models.FieldRegion)

	_, ok := s.Get(models.FieldRegion)
	assert.True(t, ok)
	assert.Equal(t, url.Values{"region": {"Asia"}}, s.Values())
}
