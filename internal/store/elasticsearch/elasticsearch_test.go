// internal/store/elasticsearch/elasticsearch_test.go
package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-explorer/internal/common/config"
	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
)

// fakeCluster answers the handful of endpoints the backend uses. When docs
// is set, searches are served page by page through the scroll endpoints.
type fakeCluster struct {
	mu          sync.Mutex
	indexExists bool
	searches    []map[string]interface{}
	bulkLines   []string
	searchReply string

	docs     []string
	pageSize int
	cursor   int
	scrolls  int
	cleared  []string
}

// nextPage serves the next slice of docs under a per-page scroll id.
func (f *fakeCluster) nextPage(w io.Writer) {
	end := f.cursor + f.pageSize
	if end > len(f.docs) {
		end = len(f.docs)
	}
	hits := make([]string, 0, end-f.cursor)
	for _, d := range f.docs[f.cursor:end] {
		hits = append(hits, `{"_source":`+d+`}`)
	}
	f.cursor = end
	_, _ = io.WriteString(w, `{"_scroll_id":"scroll-`+strconv.Itoa(f.scrolls)+`","hits":{"hits":[`+strings.Join(hits, ",")+`]}}`)
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/signals/_search":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.searches = append(f.searches, body)
		if f.docs == nil {
			_, _ = io.WriteString(w, f.searchReply)
			return
		}
		if size, ok := body["size"].(float64); ok {
			f.pageSize = int(size)
		}
		f.nextPage(w)
	case r.URL.Path == "/_search/scroll" && r.Method == http.MethodPost:
		if r.URL.Query().Get("scroll_id") != "scroll-"+strconv.Itoa(f.scrolls) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"unknown scroll id"}`)
			return
		}
		f.scrolls++
		f.nextPage(w)
	case strings.HasPrefix(r.URL.Path, "/_search/scroll/") && r.Method == http.MethodDelete:
		f.cleared = append(f.cleared, strings.TrimPrefix(r.URL.Path, "/_search/scroll/"))
		_, _ = io.WriteString(w, `{"succeeded":true}`)
	case r.URL.Path == "/signals" && r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.URL.Path == "/signals" && r.Method == http.MethodPut:
		f.indexExists = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case r.URL.Path == "/_bulk":
		sc := bufio.NewScanner(r.Body)
		items := []string{}
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			f.bulkLines = append(f.bulkLines, line)
			if strings.HasPrefix(line, `{"index"`) {
				items = append(items, `{"index":{"status":201}}`)
			}
		}
		_, _ = io.WriteString(w, `{"errors":false,"items":[`+strings.Join(items, ",")+`]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

func newTestStore(t *testing.T, cluster *fakeCluster) *Store {
	return newPagedTestStore(t, cluster, 10000)
}

func newPagedTestStore(t *testing.T, cluster *fakeCluster, pageSize int) *Store {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)
	return New(
		config.StoreConfig{URL: srv.URL, Collection: "signals", PageSize: pageSize},
		config.ElasticsearchConfig{},
		logger.NewNoOpLogger(),
	)
}

// ==========================
// Query building
// ==========================

func TestBuildSearch(t *testing.T) {
	t.Run("empty query is match_all", func(t *testing.T) {
		body := buildSearch(models.Query{}, 50)
		assert.Equal(t, map[string]interface{}{"match_all": map[string]interface{}{}}, body["query"])
		assert.Equal(t, 50, body["size"])
	})

	t.Run("term filters in field order", func(t *testing.T) {
		body := buildSearch(models.Query{
			models.FieldTopic:   models.String("oil"),
			models.FieldEndYear: models.Number(2020),
		}, 0)
		filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
		require.Len(t, filters, 2)
		assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"end_year": int64(2020)}}, filters[0])
		assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"topic": "oil"}}, filters[1])
		_, hasSize := body["size"]
		assert.False(t, hasSize)
	})

	t.Run("kind mismatch is match_none", func(t *testing.T) {
		body := buildSearch(models.Query{models.FieldEndYear: models.String("2020")}, 0)
		filters := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
		assert.Equal(t, map[string]interface{}{"match_none": map[string]interface{}{}}, filters[0])
	})
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "India", bucketKey(json.RawMessage(`"India"`)))
	assert.Equal(t, "2020", bucketKey(json.RawMessage(`2020`)))
	assert.Equal(t, "2.5", bucketKey(json.RawMessage(`2.5`)))
	assert.Equal(t, "", bucketKey(json.RawMessage(`null`)))
}

// ==========================
// Sessions
// ==========================

func TestFind(t *testing.T) {
	cluster := &fakeCluster{searchReply: `{"hits":{"hits":[
		{"_source":{"country":"India","topic":"oil","end_year":2020,"intensity":6,"relevance":2,"likelihood":3,"title":"Oil demand"}},
		{"_source":{"country":"India","topic":"oil","end_year":"","intensity":1,"relevance":1,"likelihood":1,"title":"Untimed"}}
	]}}`}
	s := newTestStore(t, cluster)

	var got []models.Record
	err := store.WithSession(context.Background(), s, "find", logger.NewNoOpLogger(), func(ctx context.Context, sess store.Session) error {
		var err error
		got, err = sess.Find(ctx, models.Query{models.FieldCountry: models.String("India")})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2020, *got[0].EndYear)
	assert.Nil(t, got[1].EndYear)

	require.Len(t, cluster.searches, 1)
	assert.EqualValues(t, 10000, cluster.searches[0]["size"])
}

func TestFind_ScrollsPastPageSize(t *testing.T) {
	tests := []struct {
		name    string
		docs    int
		scrolls int
	}{
		{"several pages", 7, 2},
		{"exact multiple needs one empty page", 6, 2},
		{"single short page", 2, 0},
		{"empty index", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cluster := &fakeCluster{docs: []string{}}
			for i := 0; i < tt.docs; i++ {
				cluster.docs = append(cluster.docs, `{"country":"India","title":"Signal `+strconv.Itoa(i)+`","end_year":2020}`)
			}
			s := newPagedTestStore(t, cluster, 3)

			var got []models.Record
			err := store.WithSession(context.Background(), s, "find", logger.NewNoOpLogger(), func(ctx context.Context, sess store.Session) error {
				var err error
				got, err = sess.Find(ctx, models.Query{})
				return err
			})
			require.NoError(t, err)
			require.Len(t, got, tt.docs, "every document comes back, not just the first page")
			for i, r := range got {
				assert.Equal(t, "Signal "+strconv.Itoa(i), r.Title)
			}

			require.Len(t, cluster.searches, 1)
			assert.EqualValues(t, 3, cluster.searches[0]["size"])
			assert.Equal(t, tt.scrolls, cluster.scrolls)
			assert.Equal(t, []string{"scroll-" + strconv.Itoa(tt.scrolls)}, cluster.cleared, "the last cursor is released")
		})
	}
}

func TestDistinct(t *testing.T) {
	cluster := &fakeCluster{searchReply: `{"hits":{"hits":[]},"aggregations":{"distinct_values":{"buckets":[
		{"key":2016,"doc_count":3},{"key":2020,"doc_count":1}
	]}}}`}
	s := newTestStore(t, cluster)

	sess, err := s.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	values, err := sess.Distinct(context.Background(), models.FieldEndYear)
	require.NoError(t, err)
	assert.Equal(t, []string{"2016", "2020"}, values)

	aggs := cluster.searches[0]["aggs"].(map[string]interface{})
	terms := aggs[distinctAgg].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, "end_year", terms["field"])
}

func TestInsert_CreatesIndexAndBulkIndexes(t *testing.T) {
	cluster := &fakeCluster{}
	s := newTestStore(t, cluster)

	sess, err := s.Open(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	n, err := sess.(store.Writer).Insert(context.Background(), []models.Record{
		{Country: "India", Title: "Oil demand", EndYear: models.IntPtr(2020)},
		{Country: "Nepal", Title: "Gas prices"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, cluster.indexExists)
	require.Len(t, cluster.bulkLines, 4)
	assert.Contains(t, cluster.bulkLines[0], `"_index":"signals"`)
	assert.Contains(t, cluster.bulkLines[1], `"country":"India"`)
}

func TestOpen_MissingAddress(t *testing.T) {
	s := New(config.StoreConfig{Collection: "signals"}, config.ElasticsearchConfig{}, logger.NewNoOpLogger())
	_, err := s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestOpen_UnreachableClusterIsStoreError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	s := New(config.StoreConfig{URL: addr, Collection: "signals"}, config.ElasticsearchConfig{}, logger.NewNoOpLogger())
	err := store.Ping(context.Background(), s, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreError(err))
}
