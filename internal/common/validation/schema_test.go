// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidator(t *testing.T) {
	v, err := NewRecordValidator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       string
		valid     bool
		badFields []string
	}{
		{
			name:  "complete record",
			doc:   `{"title":"Oil demand","country":"India","end_year":2020,"intensity":6,"relevance":2,"likelihood":3}`,
			valid: true,
		},
		{
			name:  "dataset blanks",
			doc:   `{"title":"Untimed","country":"","end_year":"","start_year":null,"intensity":"","impact":""}`,
			valid: true,
		},
		{
			name:  "numeric strings",
			doc:   `{"title":"Strings","end_year":"2021","intensity":"2.5"}`,
			valid: true,
		},
		{
			name: "missing title",
			doc:  `{"country":"India"}`,
		},
		{
			name:      "garbage year",
			doc:       `{"title":"x","end_year":"soon"}`,
			badFields: []string{"end_year"},
		},
		{
			name:      "object as country",
			doc:       `{"title":"x","country":{"name":"India"}}`,
			badFields: []string{"country"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, "%v", res.GetErrorMessages())
			for _, f := range tt.badFields {
				assert.True(t, res.HasErrors(f), "expected an error on %s, got %v", f, res.GetErrorMessages())
			}
		})
	}
}

func TestValidate_GoValues(t *testing.T) {
	v, err := NewRecordValidator()
	require.NoError(t, err)

	res, err := v.Validate(map[string]interface{}{"title": "x", "intensity": 4.0})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(map[string]interface{}{"title": 7})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorsForField("title"))
	assert.NotEmpty(t, res.Errors[0].Code)
}

func TestNewValidator_RejectsBadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}
