// internal/store/postgres/queries.go
package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"signal-explorer/internal/models"
)

// recordColumns is the column order used by every SELECT and INSERT.
var recordColumns = []string{
	"country", "region", "sector", "topic", "pestle", "source", "swot", "city",
	"end_year", "start_year", "intensity", "relevance", "likelihood",
	"impact", "title", "insight", "url", "added", "published",
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	country TEXT,
	region TEXT,
	sector TEXT,
	topic TEXT,
	pestle TEXT,
	source TEXT,
	swot TEXT,
	city TEXT,
	end_year INTEGER,
	start_year INTEGER,
	intensity DOUBLE PRECISION,
	relevance DOUBLE PRECISION,
	likelihood DOUBLE PRECISION,
	impact TEXT,
	title TEXT,
	insight TEXT,
	url TEXT,
	added TEXT,
	published TEXT
)`, pq.QuoteIdentifier(table))
}

// buildFind renders an equality conjunction over q. A value whose kind does
// not match the column type becomes a FALSE clause. The result is never
// truncated; rows are streamed by the caller.
func buildFind(table string, q models.Query) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	for _, f := range q.Fields() {
		v := q[f]
		if v.Kind() != f.Kind() {
			clauses = append(clauses, "FALSE")
			continue
		}
		args = append(args, v.Interface())
		clauses = append(clauses, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(string(f)), len(args)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(recordColumns, ", "), pq.QuoteIdentifier(table))
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	return sb.String(), args
}

func buildDistinct(table string, f models.Field) string {
	col := pq.QuoteIdentifier(string(f))
	return fmt.Sprintf("SELECT DISTINCT %s::text FROM %s WHERE %s IS NOT NULL AND %s::text <> '' ORDER BY 1",
		col, pq.QuoteIdentifier(table), col, col)
}

func insertSQL(table string) string {
	placeholders := make([]string, len(recordColumns))
	for i := range recordColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(recordColumns, ", "), strings.Join(placeholders, ", "))
}

func insertArgs(r models.Record) []interface{} {
	return []interface{}{
		r.Country, r.Region, r.Sector, r.Topic, r.Pestle, r.Source, r.SWOT, r.City,
		nullableInt(r.EndYear), nullableInt(r.StartYear), r.Intensity, r.Relevance, r.Likelihood,
		r.Impact, r.Title, r.Insight, r.URL, r.Added, r.Published,
	}
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
