// internal/models/query.go
package models

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Value is a query operand: either a string or a number.
type Value struct {
	str    string
	num    float64
	number bool
}

func String(s string) Value { return Value{str: s} }

func Number(n float64) Value { return Value{num: n, number: true} }

func (v Value) IsNumber() bool { return v.number }

func (v Value) Kind() Kind {
	if v.number {
		return KindNumber
	}
	return KindString
}

// Num returns the numeric operand; zero for strings.
func (v Value) Num() float64 { return v.num }

// Str returns the string operand, or the canonical form of a number.
func (v Value) Str() string {
	if v.number {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func (v Value) String() string { return v.Str() }

// Interface returns the operand as a driver argument: int64 for integral
// numbers, float64 for other numbers, string otherwise.
func (v Value) Interface() interface{} {
	if !v.number {
		return v.str
	}
	if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
		return int64(v.num)
	}
	return v.num
}

func (v Value) Equal(o Value) bool {
	if v.number != o.number {
		return false
	}
	if v.number {
		return v.num == o.num
	}
	return v.str == o.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = String(t)
	default:
		*v = String(string(data))
	}
	return nil
}

// Query maps fields to the exact values a record must hold. All entries must
// match; an empty Query matches every record.
type Query map[Field]Value

// Fields returns the query's fields in FilterFields order, followed by any
// other fields sorted by name.
func (q Query) Fields() []Field {
	out := make([]Field, 0, len(q))
	seen := make(map[Field]bool, len(q))
	for _, f := range FilterFields {
		if _, ok := q[f]; ok {
			out = append(out, f)
			seen[f] = true
		}
	}
	var rest []Field
	for f := range q {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Unsatisfiable reports whether some value's kind differs from its field's
// stored kind, in which case no record can match.
func (q Query) Unsatisfiable() bool {
	for f, v := range q {
		if f.Kind() != v.Kind() {
			return true
		}
	}
	return false
}

func (q Query) Equal(o Query) bool {
	if len(q) != len(o) {
		return false
	}
	for f, v := range q {
		ov, ok := o[f]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Matches reports whether r holds every value of q.
func (q Query) Matches(r Record) bool {
	for f, want := range q {
		got, ok := r.Lookup(f)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}
