// internal/explorer/criteria/criteria.go
package criteria

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"signal-explorer/internal/models"
)

var ErrUnknownField = errors.New("UNKNOWN_FILTER_FIELD")

// Entry is one selected filter value.
type Entry struct {
	Field models.Field
	Value string
}

// Set holds the selected value, or unset, for each filterable attribute.
// The zero value is not usable; call New.
type Set struct {
	values map[models.Field]string
}

// New returns a Set with every field unset.
func New() *Set {
	return &Set{values: make(map[models.Field]string, len(models.FilterFields))}
}

// FromValues builds a Set from request parameters. Unknown keys are ignored,
// and only the first value of a key is used.
func FromValues(vals url.Values) *Set {
	s := New()
	for key, list := range vals {
		if len(list) == 0 {
			continue
		}
		_ = s.Set(models.Field(key), list[0])
	}
	return s
}

// FromMap builds a Set from a plain mapping, ignoring unknown keys.
func FromMap(m map[string]string) *Set {
	s := New()
	for key, v := range m {
		_ = s.Set(models.Field(key), v)
	}
	return s
}

// Set selects v for f. An empty or blank value unsets the field.
func (s *Set) Set(f models.Field, v string) error {
	if !models.IsFilterField(f) {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if strings.TrimSpace(v) == "" {
		delete(s.values, f)
		return nil
	}
	s.values[f] = v
	return nil
}

// Get returns the selected value of f and whether it is set.
func (s *Set) Get(f models.Field) (string, bool) {
	v, ok := s.values[f]
	return v, ok
}

func (s *Set) Clear(f models.Field) {
	delete(s.values, f)
}

func (s *Set) ClearAll() {
	for f := range s.values {
		delete(s.values, f)
	}
}

func (s *Set) IsEmpty() bool {
	return len(s.values) == 0
}

// Entries returns the set values in FilterFields order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, 0, len(s.values))
	for _, f := range models.FilterFields {
		if v, ok := s.values[f]; ok {
			out = append(out, Entry{Field: f, Value: v})
		}
	}
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := New()
	for f, v := range s.values {
		c.values[f] = v
	}
	return c
}

// Values renders the set as request parameters.
func (s *Set) Values() url.Values {
	vals := url.Values{}
	for _, e := range s.Entries() {
		vals.Set(string(e.Field), e.Value)
	}
	return vals
}

// Text describes the selection as "Country: India, End_year: 2020".
// An empty selection yields "".
func (s *Set) Text() string {
	parts := make([]string, 0, len(s.values))
	for _, e := range s.Entries() {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field.Label(), e.Value))
	}
	return strings.Join(parts, ", ")
}
