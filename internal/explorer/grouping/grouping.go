// internal/explorer/grouping/grouping.go
package grouping

import "signal-explorer/internal/models"

// ProjectedRecord carries only the fields the charts read.
type ProjectedRecord struct {
	EndYear    *int    `json:"end_year"`
	Intensity  float64 `json:"intensity"`
	Sector     string  `json:"sector"`
	Topic      string  `json:"topic"`
	Region     string  `json:"region"`
	Relevance  float64 `json:"relevance"`
	Pestle     string  `json:"pestle"`
	Likelihood float64 `json:"likelihood"`
	Country    string  `json:"country"`
	Title      string  `json:"title"`
}

// Project keeps the charted fields of r.
func Project(r models.Record) ProjectedRecord {
	p := ProjectedRecord{
		Intensity:  r.Intensity,
		Sector:     r.Sector,
		Topic:      r.Topic,
		Region:     r.Region,
		Relevance:  r.Relevance,
		Pestle:     r.Pestle,
		Likelihood: r.Likelihood,
		Country:    r.Country,
		Title:      r.Title,
	}
	if r.EndYear != nil {
		p.EndYear = models.IntPtr(*r.EndYear)
	}
	return p
}

// KeyFunc picks the group key of a record.
type KeyFunc func(models.Record) string

// ByTitle groups records by title.
func ByTitle(r models.Record) string { return r.Title }

type Group struct {
	Key     string            `json:"key"`
	Records []ProjectedRecord `json:"records"`
}

// Groups is an ordered partition, groups in first-seen order.
type Groups struct {
	list  []*Group
	index map[string]int
}

// GroupBy partitions records by key. Group order and member order follow
// the input; no record is dropped or deduplicated.
func GroupBy(records []models.Record, key KeyFunc) *Groups {
	if key == nil {
		key = ByTitle
	}
	g := &Groups{index: make(map[string]int)}
	for _, r := range records {
		k := key(r)
		i, ok := g.index[k]
		if !ok {
			i = len(g.list)
			g.index[k] = i
			g.list = append(g.list, &Group{Key: k})
		}
		g.list[i].Records = append(g.list[i].Records, Project(r))
	}
	return g
}

func (g *Groups) Len() int { return len(g.list) }

// List returns the groups in first-seen order.
func (g *Groups) List() []*Group { return g.list }

func (g *Groups) Get(key string) (*Group, bool) {
	i, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.list[i], true
}

// Total is the number of records across all groups.
func (g *Groups) Total() int {
	n := 0
	for _, grp := range g.list {
		n += len(grp.Records)
	}
	return n
}
