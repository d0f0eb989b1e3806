// internal/models/fields.go
package models

import "strings"

// Field names a record attribute.
type Field string

const (
	FieldCountry    Field = "country"
	FieldEndYear    Field = "end_year"
	FieldTopic      Field = "topic"
	FieldSector     Field = "sector"
	FieldRegion     Field = "region"
	FieldPestle     Field = "pestle"
	FieldSource     Field = "source"
	FieldSWOT       Field = "swot"
	FieldCity       Field = "city"
	FieldIntensity  Field = "intensity"
	FieldRelevance  Field = "relevance"
	FieldLikelihood Field = "likelihood"
	FieldTitle      Field = "title"
)

// FilterFields is the fixed enumeration of filterable attributes, in display order.
var FilterFields = []Field{
	FieldCountry, FieldEndYear, FieldTopic, FieldSector, FieldRegion,
	FieldPestle, FieldSource, FieldSWOT, FieldCity,
}

// FacetFields are the attributes whose distinct values populate the selectors.
var FacetFields = []Field{
	FieldCountry, FieldEndYear, FieldTopic, FieldSource, FieldRegion, FieldSector, FieldPestle,
}

// ProjectedFields are the attributes kept for charting.
var ProjectedFields = []Field{
	FieldEndYear, FieldIntensity, FieldSector, FieldTopic, FieldRegion,
	FieldRelevance, FieldPestle, FieldLikelihood, FieldCountry, FieldTitle,
}

// Kind is the stored type of a field. Matching is type-sensitive.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "string"
}

// Kind returns the stored type of the field.
func (f Field) Kind() Kind {
	switch f {
	case FieldEndYear, FieldIntensity, FieldRelevance, FieldLikelihood:
		return KindNumber
	}
	return KindString
}

// Label capitalises the field name for display ("country" -> "Country").
func (f Field) Label() string {
	if f == "" {
		return ""
	}
	s := string(f)
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsFilterField reports whether f belongs to FilterFields.
func IsFilterField(f Field) bool {
	for _, ff := range FilterFields {
		if ff == f {
			return true
		}
	}
	return false
}

// IsFacetField reports whether f belongs to FacetFields.
func IsFacetField(f Field) bool {
	for _, ff := range FacetFields {
		if ff == f {
			return true
		}
	}
	return false
}
