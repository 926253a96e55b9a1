package pgvector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"docqa/internal/domain"
	"docqa/internal/vectorstore"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("docqa"),
		postgres.WithUsername("docqa"),
		postgres.WithPassword("docqa"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestStorage_Postgres(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	s, err := Open(Config{DSN: dsn, Collection: "chunks_test"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Search(ctx, []float64{1, 0}, 1)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)

	require.NoError(t, s.Init(ctx, 2))
	chunks := []domain.Chunk{
		{DocumentID: "doc", ChunkID: "c0", Index: 0, Text: "alpha", Metadata: domain.Metadata{"page": 1}},
		{DocumentID: "doc", ChunkID: "c1", Index: 1, Text: "beta", Metadata: domain.Metadata{"page": 2}},
	}
	require.NoError(t, s.Upsert(ctx, chunks, [][]float64{{1, 0}, {0, 1}}))

	res, err := s.Search(ctx, []float64{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "c0", res[0].Chunk.ChunkID)
	assert.InDelta(t, 0.995, res[0].Score, 0.01)
	assert.Equal(t, domain.Metadata{"page": int64(1)}, res[0].Chunk.Metadata)

	require.NoError(t, s.Init(ctx, 2))
	res, err = s.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Search(ctx, []float64{1, 0}, 1)
	assert.ErrorIs(t, err, vectorstore.ErrNotInitialized)
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, -2}, toFloat32([]float64{0.5, -2}))
}
