package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.UnixMilli(1_700_000_000_000)

	first := &Run{File: "a.factcheck.yaml", StartedAt: base, Passed: 3, Failed: 1, Duration: 1500 * time.Millisecond, P50: 20 * time.Microsecond, P99: 90 * time.Microsecond}
	second := &Run{File: "b.factcheck.yaml", StartedAt: base.Add(time.Minute), Skipped: 2}
	third := &Run{File: "a.factcheck.yaml", StartedAt: base.Add(2 * time.Minute), Errored: 1}
	for _, r := range []*Run{first, second, third} {
		require.NoError(t, s.Record(ctx, r))
		assert.NotEqual(t, uuid.Nil, r.ID)
	}

	runs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, third.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[2].ID)

	got := runs[2]
	assert.Equal(t, "a.factcheck.yaml", got.File)
	assert.Equal(t, 3, got.Passed)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, 20*time.Microsecond, got.P50)
	assert.Equal(t, 90*time.Microsecond, got.P99)
	assert.True(t, base.Equal(got.StartedAt))

	runs, err = s.Recent(ctx, "a.factcheck.yaml", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, third.ID, runs[0].ID)
}

func TestStore_KeepsGivenID(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := uuid.New()
	require.NoError(t, s.Record(ctx, &Run{ID: id, File: "x", StartedAt: time.Now()}))

	runs, err := s.Recent(ctx, "x", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, &Run{File: "x", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(ctx, "", 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
