package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dayflow/internal/calendar"
	"dayflow/internal/memory"
	"dayflow/internal/reminder"
)

func newTestContext(t *testing.T) (*AssistantContext, memory.Store, *calendar.Store, *reminder.Store) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	memStore, err := memory.NewSQLiteStore(ctx, filepath.Join(dir, "memories.db"), nil)
	require.NoError(t, err)
	require.NoError(t, memStore.InitSchema(ctx))
	t.Cleanup(func() { memStore.Close() })

	calStore, err := calendar.NewStore(ctx, filepath.Join(dir, "calendar.db"))
	require.NoError(t, err)
	require.NoError(t, calStore.InitSchema(ctx))
	t.Cleanup(func() { calStore.Close() })

	remStore, err := reminder.NewStore(ctx, filepath.Join(dir, "reminders.db"))
	require.NoError(t, err)
	require.NoError(t, remStore.InitSchema(ctx))
	t.Cleanup(func() { remStore.Close() })

	return NewAssistantContext(memStore, calStore, remStore, zap.NewNop()), memStore, calStore, remStore
}

func TestRefreshEmptyStores(t *testing.T) {
	ac, _, _, _ := newTestContext(t)

	require.NoError(t, ac.Refresh(context.Background()))
	assert.Empty(t, ac.Summary(), "no sections when nothing is stored")
}

func TestRefreshBuildsSections(t *testing.T) {
	ctx := context.Background()
	ac, memStore, calStore, remStore := newTestContext(t)

	_, err := memStore.Add(ctx, "prefers async standups", "work", 4)
	require.NoError(t, err)

	start := time.Now().Add(2 * time.Hour)
	_, err = calStore.Add(ctx, "Team sync", start, start.Add(time.Hour), "")
	require.NoError(t, err)

	_, err = remStore.Add(ctx, "Submit expense report", time.Now().Add(24*time.Hour), "")
	require.NoError(t, err)

	require.NoError(t, ac.Refresh(ctx))
	summary := ac.Summary()

	assert.Contains(t, summary, "Known about the user:")
	assert.Contains(t, summary, "[work] prefers async standups")
	assert.Contains(t, summary, "Upcoming calendar events:")
	assert.Contains(t, summary, "Team sync")
	assert.Contains(t, summary, "Pending reminders:")
	assert.Contains(t, summary, "Submit expense report")
}

func TestRefreshReflectsMutations(t *testing.T) {
	ctx := context.Background()
	ac, memStore, _, _ := newTestContext(t)

	m, err := memStore.Add(ctx, "lives in Austin", "", 0)
	require.NoError(t, err)
	require.NoError(t, ac.Refresh(ctx))
	assert.Contains(t, ac.Summary(), "lives in Austin")

	ok, err := memStore.Remove(ctx, memory.Ref{ID: m.ID})
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ac.Refresh(ctx))
	assert.NotContains(t, ac.Summary(), "lives in Austin")
}

func TestRefreshCapsMemoryList(t *testing.T) {
	ctx := context.Background()
	ac, memStore, _, _ := newTestContext(t)

	// One more memory than the section limit; the overflow entry has the
	// lowest importance so it sorts last and falls off.
	for i := 0; i < contextListLimit; i++ {
		_, err := memStore.Add(ctx, "important fact", "", 5)
		require.NoError(t, err)
	}
	_, err := memStore.Add(ctx, "overflow fact", "", 1)
	require.NoError(t, err)

	require.NoError(t, ac.Refresh(ctx))
	assert.NotContains(t, ac.Summary(), "overflow fact")
}
