// internal/store/elasticsearch/queries.go
package elasticsearch

import (
	"signal-explorer/internal/models"
)

const distinctAgg = "distinct_values"

// maxDistinctBuckets bounds the terms aggregation behind Distinct.
const maxDistinctBuckets = 10000

// buildSearch renders q as a bool filter of term clauses. An empty query is
// match_all; a value of the wrong kind contributes match_none.
func buildSearch(q models.Query, size int) map[string]interface{} {
	body := map[string]interface{}{
		"sort": []interface{}{"_doc"},
	}
	if size > 0 {
		body["size"] = size
	}

	if len(q) == 0 {
		body["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		return body
	}

	filters := make([]interface{}, 0, len(q))
	for _, f := range q.Fields() {
		v := q[f]
		if v.Kind() != f.Kind() {
			filters = append(filters, map[string]interface{}{"match_none": map[string]interface{}{}})
			continue
		}
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{string(f): v.Interface()},
		})
	}
	body["query"] = map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
	return body
}

func buildDistinct(f models.Field) map[string]interface{} {
	return map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			distinctAgg: map[string]interface{}{
				"terms": map[string]interface{}{
					"field": string(f),
					"size":  maxDistinctBuckets,
					"order": map[string]interface{}{"_key": "asc"},
				},
			},
		},
	}
}

// indexMapping stores text attributes as keywords so term filters and
// aggregations see the exact values.
func indexMapping() map[string]interface{} {
	props := map[string]interface{}{
		"start_year": map[string]interface{}{"type": "integer"},
		"impact":     map[string]interface{}{"type": "keyword"},
		"insight":    map[string]interface{}{"type": "text"},
		"url":        map[string]interface{}{"type": "keyword"},
		"added":      map[string]interface{}{"type": "keyword"},
		"published":  map[string]interface{}{"type": "keyword"},
	}
	for _, f := range []models.Field{
		models.FieldCountry, models.FieldRegion, models.FieldSector, models.FieldTopic,
		models.FieldPestle, models.FieldSource, models.FieldSWOT, models.FieldCity, models.FieldTitle,
	} {
		props[string(f)] = map[string]interface{}{"type": "keyword"}
	}
	props[string(models.FieldEndYear)] = map[string]interface{}{"type": "integer"}
	for _, f := range []models.Field{models.FieldIntensity, models.FieldRelevance, models.FieldLikelihood} {
		props[string(f)] = map[string]interface{}{"type": "double"}
	}
	return map[string]interface{}{
		"mappings": map[string]interface{}{"properties": props},
	}
}
