// internal/explorer/facets/catalog_test.go
package facets

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/database"
	apperrors "signal-explorer/internal/common/errors"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/models"
	"signal-explorer/internal/store"
	"signal-explorer/internal/store/memory"
)

const testKey = "signal-explorer:facets"

func dataset() []models.Record {
	return []models.Record{
		{Country: "India", EndYear: models.IntPtr(2020), Topic: "oil", Source: "EIA", Region: "Southern Asia", Sector: "Energy", Pestle: "Economic"},
		{Country: "Nepal", EndYear: models.IntPtr(2017), Topic: "gas", Source: "EIA", Region: "Southern Asia", Sector: "Energy", Pestle: "Political"},
		{Country: "", Topic: "oil", Source: "WSJ", Region: "World", Sector: "", Pestle: "Economic"},
	}
}

func expectedValues() Values {
	return Values{
		models.FieldCountry: {"India", "Nepal"},
		models.FieldEndYear: {"2020", "2017"},
		models.FieldTopic:   {"oil", "gas"},
		models.FieldSource:  {"EIA", "WSJ"},
		models.FieldRegion:  {"Southern Asia", "World"},
		models.FieldSector:  {"Energy"},
		models.FieldPestle:  {"Economic", "Political"},
	}
}

// countingStore counts opens and can fail Distinct for one field.
type countingStore struct {
	inner  store.Store
	failOn models.Field
	opens  int32
}

func (s *countingStore) Driver() string { return "counting" }

func (s *countingStore) Open(ctx context.Context) (store.Session, error) {
	atomic.AddInt32(&s.opens, 1)
	sess, err := s.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &countingSession{Session: sess, failOn: s.failOn}, nil
}

type countingSession struct {
	store.Session
	failOn models.Field
}

func (s *countingSession) Distinct(ctx context.Context, f models.Field) ([]string, error) {
	if f == s.failOn {
		return nil, errors.New("shard unavailable")
	}
	return s.Session.Distinct(ctx, f)
}

// gatedStore holds every Open until gate is closed.
type gatedStore struct {
	inner   store.Store
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
	opens   int32
}

func (s *gatedStore) Driver() string { return "gated" }

func (s *gatedStore) Open(ctx context.Context) (store.Session, error) {
	atomic.AddInt32(&s.opens, 1)
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.inner.Open(ctx)
}

// ==========================
// Loading
// ==========================

func TestLoad_AllFields(t *testing.T) {
	s := &countingStore{inner: memory.NewFromRecords(dataset())}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger())

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expectedValues(), got)
	assert.EqualValues(t, len(models.FacetFields), s.opens, "one session per field")
}

func TestLoad_Memoised(t *testing.T) {
	s := &countingStore{inner: memory.NewFromRecords(dataset())}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger())

	first, err := c.Load(context.Background())
	require.NoError(t, err)
	first[models.FieldCountry][0] = "mutated"

	second, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "India", second[models.FieldCountry][0], "callers get copies")
	assert.EqualValues(t, len(models.FacetFields), s.opens)
}

func TestLoad_AllOrNothing(t *testing.T) {
	s := &countingStore{inner: memory.NewFromRecords(dataset()), failOn: models.FieldTopic}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger())

	got, err := c.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, apperrors.IsStoreError(err))
}

func TestLoad_ConfigurationError(t *testing.T) {
	c := NewCatalog(memory.New(""), time.Second, logger.NewNoOpLogger())

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestLoad_FailureIsLeftToTheCaller(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := &countingStore{inner: memory.NewFromRecords(dataset()), failOn: models.FieldSector}
	c := NewCatalog(s, time.Second, logger.NewZapAdapter(zap.New(core)))

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestLoad_ConcurrentCallersShareOneLoad(t *testing.T) {
	s := &gatedStore{
		inner:   memory.NewFromRecords(dataset()),
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	c := NewCatalog(s, 5*time.Second, logger.NewNoOpLogger())

	type result struct {
		values Values
		err    error
	}
	const callers = 4
	results := make(chan result, callers)
	load := func() {
		v, err := c.Load(context.Background())
		results <- result{v, err}
	}

	go load()
	<-s.entered

	// A caller with a short deadline stops waiting without blocking on the load in flight.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeStoreTimeout, apperrors.CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)

	for i := 1; i < callers; i++ {
		go load()
	}
	close(s.gate)

	for i := 0; i < callers; i++ {
		res := <-results
		require.NoError(t, res.err)
		assert.Equal(t, expectedValues(), res.values)
	}
	assert.EqualValues(t, len(models.FacetFields), atomic.LoadInt32(&s.opens))
}

func TestRefresh_ReloadsFromStore(t *testing.T) {
	s := &countingStore{inner: memory.NewFromRecords(dataset())}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger())

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2*len(models.FacetFields), s.opens)
}

// ==========================
// Redis cache-aside
// ==========================

func TestLoad_CacheMissWritesThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCatalog(memory.NewFromRecords(dataset()), time.Second, logger.NewNoOpLogger(),
		WithCache(client, "signal-explorer:", 10*time.Minute))

	data, _ := json.Marshal(expectedValues())
	mock.ExpectGet(testKey).RedisNil()
	mock.ExpectSet(testKey, data, 10*time.Minute).SetVal("OK")

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expectedValues(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_CacheHitSkipsStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := &countingStore{inner: memory.New("")}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger(), WithCache(client, "signal-explorer:", time.Minute))

	data, _ := json.Marshal(expectedValues())
	mock.ExpectGet(testKey).SetVal(string(data))

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expectedValues(), got)
	assert.Zero(t, s.opens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_CacheWithUnknownFieldIsDiscarded(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := &countingStore{inner: memory.NewFromRecords(dataset())}
	c := NewCatalog(s, time.Second, logger.NewNoOpLogger(), WithCache(client, "signal-explorer:", time.Minute))

	data, _ := json.Marshal(expectedValues())
	mock.ExpectGet(testKey).SetVal(`{"country":["India"],"insight":["stale"]}`)
	mock.ExpectSet(testKey, data, time.Minute).SetVal("OK")

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expectedValues(), got)
	assert.EqualValues(t, len(models.FacetFields), s.opens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_CacheFailureDegradesToStore(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewCatalog(memory.NewFromRecords(dataset()), time.Second, logger.NewNoOpLogger(),
		WithCache(client, "signal-explorer:", time.Minute))

	data, _ := json.Marshal(expectedValues())
	mock.ExpectGet(testKey).SetErr(errors.New("connection reset"))
	mock.ExpectSet(testKey, data, time.Minute).SetErr(errors.New("connection reset"))

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expectedValues(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_TTLAndRefresh(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rc.Close()

	c := NewCatalog(memory.NewFromRecords(dataset()), time.Second, logger.NewNoOpLogger(),
		WithCache(rc.Client, "signal-explorer:", 30*time.Second))

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(testKey))
	assert.Equal(t, 30*time.Second, mr.TTL(testKey))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(testKey))

	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists(testKey))
}

// ==========================
// Presentation
// ==========================

func TestSorted(t *testing.T) {
	v := Values{
		models.FieldEndYear: {"2030", "2017", "2100", "2020"},
		models.FieldCountry: {"Nepal", "India", "Chile"},
	}
	sorted := v.Sorted()

	assert.Equal(t, []string{"2017", "2020", "2030", "2100"}, sorted[models.FieldEndYear])
	assert.Equal(t, []string{"Chile", "India", "Nepal"}, sorted[models.FieldCountry])
	assert.Equal(t, []string{}, sorted[models.FieldTopic], "every facet field is present")
	assert.Equal(t, []string{"2030", "2017", "2100", "2020"}, v[models.FieldEndYear], "input untouched")
}
