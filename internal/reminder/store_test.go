package reminder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.InitSchema(ctx))
	return store
}

func TestAddDefaultsTitle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r, err := store.Add(ctx, "", time.Now().Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Reminder", r.Title)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.Completed)
}

func TestModifyByIDAndTitle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	due := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	r, err := store.Add(ctx, "Water plants", due, "")
	require.NoError(t, err)

	newDue := due.Add(24 * time.Hour)
	ok, err := store.Modify(ctx, Ref{ID: r.ID}, Changes{Due: &newDue})
	require.NoError(t, err)
	assert.True(t, ok)

	newNotes := "the ficus too"
	ok, err = store.Modify(ctx, Ref{Title: "Water plants"}, Changes{Notes: &newNotes})
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Due.Equal(newDue))
	assert.Equal(t, "the ficus too", pending[0].Notes)
}

func TestCompleteRemovesFromPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r, err := store.Add(ctx, "Take meds", time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	completed := true
	ok, err := store.Modify(ctx, Ref{ID: r.ID}, Changes{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Reopening the reminder puts it back.
	completed = false
	ok, err = store.Modify(ctx, Ref{ID: r.ID}, Changes{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Take meds", pending[0].Title)
}

func TestModifyMissingReminder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	title := "anything"
	ok, err := store.Modify(ctx, Ref{Title: "no such reminder"}, Changes{Title: &title})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r, err := store.Add(ctx, "One-off", time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	ok, err := store.Delete(ctx, Ref{ID: r.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, Ref{Title: "One-off"})
	require.NoError(t, err)
	assert.False(t, ok, "already gone")
}

func TestPendingOrdersByDue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Add(ctx, "Later", base.Add(48*time.Hour), "")
	require.NoError(t, err)
	_, err = store.Add(ctx, "Sooner", base.Add(2*time.Hour), "")
	require.NoError(t, err)

	pending, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Sooner", pending[0].Title)
	assert.Equal(t, "Later", pending[1].Title)

	pending, err = store.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Sooner", pending[0].Title)
}
