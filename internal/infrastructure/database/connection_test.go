package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
)

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "url wins",
			cfg:  config.DatabaseConfig{URL: "postgres://u:p@db/colony", Host: "ignored"},
			want: "postgres://u:p@db/colony",
		},
		{
			name: "discrete fields",
			cfg:  config.DatabaseConfig{Host: "db", Port: 5433, User: "colonysim", Name: "colony", SSLMode: "disable"},
			want: "host=db port=5433 user=colonysim dbname=colony sslmode=disable",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.PostgresDSN(&tt.cfg))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", database.SQLiteDSN(""))
	assert.Equal(t, ":memory:", database.SQLiteDSN(":memory:"))
	assert.Equal(t, "colony.db?_busy_timeout=5000", database.SQLiteDSN("colony.db"))
	assert.Equal(t, "colony.db?cache=shared&_busy_timeout=5000", database.SQLiteDSN("colony.db?cache=shared"))
}

func TestNewConnection_SQLiteFileIsMigrated(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "colony.db")}

	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&persistence.CheckpointModel{}))
	assert.True(t, db.Migrator().HasTable(&persistence.EventLogModel{}))
}

func TestNewConnection_RejectsUnknownType(t *testing.T) {
	_, err := database.NewConnection(&config.DatabaseConfig{Type: "mysql"})

	assert.ErrorContains(t, err, "unsupported database type: mysql")
}
