// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// Store drivers.
const (
	DriverMemory        = "memory"
	DriverPostgres      = "postgres"
	DriverElasticsearch = "elasticsearch"
)

// StoreConfig selects the record store. URL is the single required external
// setting: a postgres DSN, an elasticsearch address or a dataset file path.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	Collection string `mapstructure:"collection"` // table or index name
	Timeout    int    `mapstructure:"timeout"`    // milliseconds
	PageSize   int    `mapstructure:"page_size"`  // documents per elasticsearch scroll page
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	MaxConnections int `mapstructure:"max_connections"`
	MaxIdle        int `mapstructure:"max_idle"`
}

type ElasticsearchConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the redis copy of the facet catalog.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // seconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// Category orders for the chart band axis.
const (
	OrderAscending = "ascending"
	OrderFirstSeen = "first_seen"
)

type ChartConfig struct {
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	CategoryOrder string `mapstructure:"category_order"`
	Format        string `mapstructure:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Describe returns a loggable summary without credentials.
func (s StoreConfig) Describe() string {
	configured := "unset"
	if s.URL != "" {
		configured = "set"
	}
	return fmt.Sprintf("driver=%s collection=%s url=%s", s.Driver, s.Collection, configured)
}
