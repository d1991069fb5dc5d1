package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duoctl/internal/db"
	"duoctl/internal/domain"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return New(writeDB, readDB)
}

func TestRecordAndList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	_, err := j.Record(ctx, domain.Outcome{
		Kind: domain.KindAccount, State: domain.StatePresent, Changed: true,
		Verdict: domain.VerdictChanged, Operation: domain.OpCreate,
		Attributes: map[string]any{"name": "Acme", "account_id": "DA1"},
	})
	require.NoError(t, err)

	second, err := j.Record(ctx, domain.Outcome{
		Kind: domain.KindSettings, State: domain.StatePresent, Tenant: "Acme", AccountID: "DA1",
		DryRun: true, Verdict: domain.VerdictWouldChange, Changed: true,
		Attributes: map[string]any{"timezone": "UTC", "lockout_threshold": 5},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, second.ID)

	entries, err := j.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	latest := entries[0]
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, domain.KindSettings, latest.Kind)
	assert.Equal(t, "dry-run", latest.Mode)
	assert.Equal(t, domain.VerdictWouldChange, latest.Verdict)
	assert.Equal(t, "DA1", latest.AccountID)
	assert.InDelta(t, 5, latest.Attributes["lockout_threshold"], 0.001)
	assert.Equal(t, base.Add(2*time.Second), latest.CreatedAt)

	assert.Equal(t, domain.OpCreate, entries[1].Operation)
	assert.Equal(t, "enforce", entries[1].Mode)
}

func TestRecord_RedactsSecrets(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	attrs := map[string]any{"integration_key": "DI1", "secret_key": "s3cr3t"}
	recorded, err := j.Record(ctx, domain.Outcome{
		Kind: domain.KindIntegration, State: domain.StatePresent, Verdict: domain.VerdictChanged,
		Attributes: attrs,
	})
	require.NoError(t, err)
	assert.Equal(t, "[redacted]", recorded.Attributes["secret_key"])
	assert.Equal(t, "s3cr3t", attrs["secret_key"])

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "[redacted]", entries[0].Attributes["secret_key"])
	assert.Equal(t, "DI1", entries[0].Attributes["integration_key"])
}

func TestRecord_FailedOutcome(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	_, err := j.Record(ctx, domain.Outcome{
		Kind: domain.KindEdition, State: domain.StatePresent, Error: "edition: not GOLD",
	})
	require.NoError(t, err)

	entries, err := j.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "edition: not GOLD", entries[0].Error)
	assert.NotNil(t, entries[0].Attributes)
}

func TestList_Limit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	for range 5 {
		_, err := j.Record(ctx, domain.Outcome{Kind: domain.KindSettings, State: domain.StateQuery})
		require.NoError(t, err)
	}

	entries, err := j.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.sqlite")
	j, err := Open(context.Background(), path)
	require.NoError(t, err)

	_, err = j.Record(context.Background(), domain.Outcome{Kind: domain.KindAccount, State: domain.StateQuery})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer j.Close() //nolint:errcheck
	entries, err := j.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
