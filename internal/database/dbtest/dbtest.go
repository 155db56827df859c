// Package dbtest opens throwaway, fully migrated sqlite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/database"
	"github.com/Additional-Code/fornecedor/internal/migration"
)

// Config returns a configuration pointing at a private in-memory sqlite database.
func Config() config.Config {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return config.Config{
		Database: config.Database{
			Driver:    "sqlite",
			WriterDSN: dsn,
			ReaderDSN: dsn,
		},
	}
}

// New opens a migrated database that is closed when the test ends.
func New(t testing.TB) *database.Connections {
	t.Helper()

	cfg := Config()
	conns, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	mig, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, mig.Up(context.Background()))

	return conns
}
