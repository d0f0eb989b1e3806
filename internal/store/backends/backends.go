// internal/store/backends/backends.go
package backends

import (
	"fmt"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/store"
	"signal-explorer/internal/store/elasticsearch"
	"signal-explorer/internal/store/memory"
	"signal-explorer/internal/store/postgres"
)

// New builds the store selected by cfg.Driver. No connection is made here;
// a missing URL surfaces on the first Open.
func New(cfg config.StoreConfig, db config.DatabaseConfig, log logger.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.New(cfg.URL), nil
	case config.DriverPostgres:
		return postgres.New(cfg, db.Postgres, log), nil
	case config.DriverElasticsearch:
		return elasticsearch.New(cfg, db.Elasticsearch, log), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
