// internal/explorer/query/builder.go
package query

import (
	"strings"

	"signal-explorer/internal/explorer/criteria"
	"signal-explorer/internal/models"
)

// Build converts the selected criteria into a store query. Unset fields are
// omitted, never translated into empty-string or null matches, so an empty
// selection yields an empty query that matches the whole collection.
func Build(c *criteria.Set) models.Query {
	q := make(models.Query)
	if c == nil {
		return q
	}
	for _, e := range c.Entries() {
		if !models.IsFilterField(e.Field) || strings.TrimSpace(e.Value) == "" {
			continue
		}
		q[e.Field] = Coerce(e.Value)
	}
	return q
}
