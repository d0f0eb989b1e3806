// internal/explorer/query/coerce.go
package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"signal-explorer/internal/models"
)

// decimalPattern accepts plain decimal notation with an optional sign,
// fraction and exponent. Hex, binary, underscores, Inf and NaN are rejected.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Coerce converts a criteria value into a query operand. The value becomes a
// number iff, once surrounding whitespace is trimmed, it is a complete finite
// decimal number; otherwise the original string is kept.
func Coerce(raw string) models.Value {
	trimmed := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(trimmed) {
		return models.String(raw)
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return models.String(raw)
	}
	return models.Number(n)
}
