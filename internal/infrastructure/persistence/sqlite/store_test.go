package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/internal/domain/tracking"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "habit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_LoadEmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, tracking.NewRecord(), rec)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := "2026-10-01"
	want := &tracking.Record{
		StartDate: &start,
		Days: []tracking.CheckIn{
			{Date: "2026-10-01", Response: "нет"},
			{Date: "2026-10-01", Response: "да"},
			{Date: "2026-10-02", Response: "Срыв: нет\nСон: да"},
		},
	}

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := tracking.NewRecord()
	first.Days = []tracking.CheckIn{{Date: "2026-10-01", Response: "a"}, {Date: "2026-10-02", Response: "b"}}
	require.NoError(t, s.Save(ctx, first))

	second := tracking.NewRecord()
	second.Days = []tracking.CheckIn{{Date: "2026-10-03", Response: "c"}}
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Equal(t, second.Days, got.Days)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "habit.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	rec := tracking.NewRecord()
	start := "2026-10-19"
	rec.StartDate = &start
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, start, *got.StartDate)
	assert.NoError(t, reopened.Ping(ctx))
}
