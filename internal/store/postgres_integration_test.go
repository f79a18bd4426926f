package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// TestPostgres_WriteTruncate runs the writer, the duplicate-key
// classification and the truncate path against a real PostgreSQL.
func TestPostgres_WriteTruncate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test requiring Docker")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("market"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	out := config.Default().Output
	out.ChunkSize = 4
	s, err := Open(ctx, config.DatabaseConfig{Dialect: DialectPostgres, DSN: dsn}, out, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.AutoMigrate(ctx))

	res, err := s.Writer().Write(ctx, sampleDataset(10))
	require.NoError(t, err)
	assert.Equal(t, 10, res.HeaderRows)
	assert.Equal(t, 20, res.LineRows)

	_, err = s.Writer().Write(ctx, sampleDataset(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)

	ds, err := s.LoadDataset(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Headers, 10)
	assert.True(t, sampleDataset(1).Headers[0].TotalAmount.Equal(ds.Headers[0].TotalAmount))

	require.NoError(t, s.Truncate(ctx))
	headers, lines, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, headers)
	assert.Zero(t, lines)
}
