// internal/models/record.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one signal from the dataset. Records are read-only to the explorer.
type Record struct {
	Country    string  `json:"country"`
	Region     string  `json:"region"`
	Sector     string  `json:"sector"`
	Topic      string  `json:"topic"`
	Pestle     string  `json:"pestle"`
	Source     string  `json:"source"`
	SWOT       string  `json:"swot,omitempty"`
	City       string  `json:"city,omitempty"`
	EndYear    *int    `json:"end_year"`
	StartYear  *int    `json:"start_year,omitempty"`
	Intensity  float64 `json:"intensity"`
	Relevance  float64 `json:"relevance"`
	Likelihood float64 `json:"likelihood"`
	Impact     string  `json:"impact,omitempty"`
	Title      string  `json:"title"`
	Insight    string  `json:"insight,omitempty"`
	URL        string  `json:"url,omitempty"`
	Added      string  `json:"added,omitempty"`
	Published  string  `json:"published,omitempty"`
}

// Lookup returns the stored value of f. Unset years report false.
func (r Record) Lookup(f Field) (Value, bool) {
	switch f {
	case FieldCountry:
		return String(r.Country), true
	case FieldRegion:
		return String(r.Region), true
	case FieldSector:
		return String(r.Sector), true
	case FieldTopic:
		return String(r.Topic), true
	case FieldPestle:
		return String(r.Pestle), true
	case FieldSource:
		return String(r.Source), true
	case FieldSWOT:
		return String(r.SWOT), true
	case FieldCity:
		return String(r.City), true
	case FieldTitle:
		return String(r.Title), true
	case FieldEndYear:
		if r.EndYear == nil {
			return Value{}, false
		}
		return Number(float64(*r.EndYear)), true
	case FieldIntensity:
		return Number(r.Intensity), true
	case FieldRelevance:
		return Number(r.Relevance), true
	case FieldLikelihood:
		return Number(r.Likelihood), true
	}
	return Value{}, false
}

// IntPtr is a convenience for building records with a year.
func IntPtr(v int) *int { return &v }

// UnmarshalJSON accepts the dataset convention of "" for unset numbers.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		EndYear    json.RawMessage `json:"end_year"`
		StartYear  json.RawMessage `json:"start_year"`
		Intensity  json.RawMessage `json:"intensity"`
		Relevance  json.RawMessage `json:"relevance"`
		Likelihood json.RawMessage `json:"likelihood"`
		Impact     json.RawMessage `json:"impact"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = Record(aux.plain)

	var err error
	if r.EndYear, err = optionalInt("end_year", aux.EndYear); err != nil {
		return err
	}
	if r.StartYear, err = optionalInt("start_year", aux.StartYear); err != nil {
		return err
	}
	if r.Intensity, err = number("intensity", aux.Intensity); err != nil {
		return err
	}
	if r.Relevance, err = number("relevance", aux.Relevance); err != nil {
		return err
	}
	if r.Likelihood, err = number("likelihood", aux.Likelihood); err != nil {
		return err
	}
	r.Impact = text(aux.Impact)
	return nil
}

func blank(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`))
}

func optionalInt(name string, raw json.RawMessage) (*int, error) {
	n, ok, err := parseNumber(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%s: expected whole number, got %s", name, strings.TrimSpace(string(raw)))
	}
	v := int(n)
	return &v, nil
}

func number(name string, raw json.RawMessage) (float64, error) {
	n, _, err := parseNumber(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func parseNumber(raw json.RawMessage) (float64, bool, error) {
	if blank(raw) {
		return 0, false, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("expected number, got %s", string(raw))
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, fmt.Errorf("expected number, got %q", s)
	}
	return n, true, nil
}

func text(raw json.RawMessage) string {
	if blank(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
