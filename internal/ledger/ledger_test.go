package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLiteLedger_Lifecycle(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)

	clock := time.UnixMilli(1_700_000_000_000)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	batch := uuid.New()
	okID, err := l.Start(ctx, &batch, "/data/a.pdf", "mutation", "/data/a.xlsx", "xlsx")
	require.NoError(t, err)
	require.NoError(t, l.Finish(ctx, okID, 3))

	failID, err := l.Start(ctx, nil, "/data/b.pdf", "basic", "", "csv")
	require.NoError(t, err)
	require.NoError(t, l.Fail(ctx, failID, "cannot read document"))

	runningID, err := l.Start(ctx, nil, "/data/c.pdf", "basic", "", "json")
	require.NoError(t, err)

	runs, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, runningID, runs[0].ID)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)

	assert.Equal(t, failID, runs[1].ID)
	assert.Equal(t, StatusFailed, runs[1].Status)
	assert.Equal(t, "cannot read document", runs[1].Error)
	assert.Nil(t, runs[1].BatchID)

	assert.Equal(t, okID, runs[2].ID)
	assert.Equal(t, StatusOK, runs[2].Status)
	assert.Equal(t, 3, runs[2].Records)
	assert.Equal(t, "mutation", runs[2].Mode)
	require.NotNil(t, runs[2].BatchID)
	assert.Equal(t, batch, *runs[2].BatchID)
	require.NotNil(t, runs[2].FinishedAt)
	assert.True(t, runs[2].FinishedAt.After(runs[2].StartedAt))

	limited, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteLedger_FinishUnknownRun(t *testing.T) {
	l := openTestLedger(t)
	assert.Error(t, l.Finish(context.Background(), uuid.New(), 1))
}

func TestSQLiteLedger_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	l, err := Open(ctx, path, nil)
	require.NoError(t, err)
	id, err := l.Start(ctx, nil, "a.pdf", "basic", "a.xlsx", "xlsx")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	d := Discard()

	id, err := d.Start(ctx, nil, "a.pdf", "basic", "", "")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id, "nothing is recorded, so no run id")
	assert.NoError(t, d.Finish(ctx, id, 1))
	assert.NoError(t, d.Fail(ctx, id, "x"))
	_, err = d.Recent(ctx, 5)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, d.Close())
}
