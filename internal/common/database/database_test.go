// internal/common/database/database_test.go
package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-explorer/internal/common/config"
)

func TestPostgresClient_PingAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()

	client := NewPostgresFromDB(db)
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_DoesNotConnect(t *testing.T) {
	client, err := NewPostgres("postgres://nobody@127.0.0.1:1/none?sslmode=disable", config.PostgresConfig{MaxConnections: 2, MaxIdle: 1})
	require.NoError(t, err)
	require.NoError(t, client.Close())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestSplitAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, splitAddresses(" http://es1:9200, ,http://es2:9200"))
	assert.Nil(t, splitAddresses(""))
}
