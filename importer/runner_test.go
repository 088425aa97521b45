package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidence-hub/domain"
)

type stubFetcher struct {
	reviews []domain.SourceReview
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(ctx context.Context, in *domain.Integration) ([]domain.SourceReview, error) {
	f.calls++
	return f.reviews, f.err
}

func newTestRunner(store *memoryStore, opts ...Option) *Runner {
	return NewRunner(store, store, fixedNormalizer(), quietLogger(), opts...)
}

func review(name, title string) domain.ParsedReview {
	return domain.ParsedReview{ReviewerName: name, Company: "Acme", Title: title, Content: title + " and more detail", Rating: 4}
}

func TestImportTwiceSkipsDuplicate(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	runner := newTestRunner(store)
	batch := []domain.ParsedReview{review("John Doe", "Great support")}

	first, err := runner.Import(context.Background(), "gartner-1", batch)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.Imported)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, "Imported 1, skipped 0, failed 0", first.Message)

	second, err := runner.Import(context.Background(), "gartner-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Failed)

	assert.Len(t, store.evidence, 1)
}

func TestImportReparsedPasteIsIdempotent(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	runner := newTestRunner(store)
	paste := "5/5\nJohn Doe, CTO at Acme\nJan 5, 2024\nWhat do you like most: Great support\nWhat needs improvement: Pricing"

	for i := 0; i < 2; i++ {
		_, err := runner.Import(context.Background(), "gartner-1", ParsePaste(paste))
		require.NoError(t, err)
	}
	assert.Len(t, store.evidence, 1)
}

func TestImportAllFailuresMarksRunFailed(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	store.createErr = func(*domain.Evidence) error { return errInsert }
	runner := newTestRunner(store)

	batch := []domain.ParsedReview{
		review("A One", "first"), review("B Two", "second"), review("C Three", "third"),
		review("D Four", "fourth"), review("E Five", "fifth"),
	}
	res, err := runner.Import(context.Background(), "gartner-1", batch)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, domain.SyncFailed, res.Status)
	assert.Equal(t, 5, res.Failed)
	assert.Len(t, res.Errors, 3)
	assert.Equal(t, "first: "+errInsert.Error(), res.Errors[0])

	in := store.integration("gartner-1")
	assert.Equal(t, domain.SyncFailed, in.LastSyncStatus)
	require.NotNil(t, in.LastSyncError)
	assert.Equal(t, fmt.Sprintf("Failed to import: first: %[1]s; second: %[1]s; third: %[1]s", errInsert), *in.LastSyncError)
	assert.Equal(t, 5, in.LastSyncTotal)
	assert.Equal(t, 5, in.LastSyncFailed)
	assert.NotNil(t, in.LastSyncAt)
}

func TestImportPartialFailureCompletes(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	store.createErr = func(e *domain.Evidence) error {
		if e.Title == "broken" {
			return errInsert
		}
		return nil
	}
	runner := newTestRunner(store)

	// seed a duplicate
	_, err := runner.Import(context.Background(), "gartner-1", []domain.ParsedReview{review("A One", "dup")})
	require.NoError(t, err)

	res, err := runner.Import(context.Background(), "gartner-1", []domain.ParsedReview{
		review("A One", "dup"), review("B Two", "broken"), review("C Three", "fine"),
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, domain.SyncCompleted, res.Status)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)

	in := store.integration("gartner-1")
	assert.Equal(t, domain.SyncCompleted, in.LastSyncStatus)
	assert.Equal(t, "Partial: 1 failed", domain.StringValue(in.LastSyncError))
}

func TestImportOnlyDuplicatesIsFailedRun(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	runner := newTestRunner(store)
	batch := []domain.ParsedReview{review("A One", "dup")}

	_, err := runner.Import(context.Background(), "gartner-1", batch)
	require.NoError(t, err)
	res, err := runner.Import(context.Background(), "gartner-1", batch)
	require.NoError(t, err)

	assert.False(t, res.Success)
	in := store.integration("gartner-1")
	assert.Equal(t, domain.SyncFailed, in.LastSyncStatus)
	assert.Equal(t, "No reviews imported: 1 skipped as duplicates", domain.StringValue(in.LastSyncError))
}

func TestImportInputErrorsLeaveStateUntouched(t *testing.T) {
	store := newMemoryStore(newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	runner := newTestRunner(store)

	_, err := runner.Import(context.Background(), "", []domain.ParsedReview{review("A One", "x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runner.Import(context.Background(), "gartner-1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runner.Import(context.Background(), "missing", []domain.ParsedReview{review("A One", "x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, store.updates)
	assert.Equal(t, domain.SyncPending, store.integration("gartner-1").LastSyncStatus)
}

func TestSyncMissingAPIKeyFailsRun(t *testing.T) {
	store := newMemoryStore(newIntegration("g2-1", domain.IntegrationG2, domain.IntegrationConfig{}))
	fetcher := NewRemoteFetcher(&fakeG2{}, &fakeCapterra{}, store, DefaultDefaults(), quietLogger())
	runner := newTestRunner(store, WithFetcher(fetcher))

	res, err := runner.Sync(context.Background(), "g2-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Contains(t, err.Error(), "G2 API key not configured")
	assert.False(t, res.Success)

	in := store.integration("g2-1")
	assert.Equal(t, domain.SyncFailed, in.LastSyncStatus)
	assert.Contains(t, domain.StringValue(in.LastSyncError), "API key not configured")
	require.Len(t, store.updates, 2)
	assert.Equal(t, domain.SyncRunning, store.updates[0].Status)
	assert.Nil(t, store.updates[1].Counts)
}

func TestSyncImportsRemoteBatch(t *testing.T) {
	store := newMemoryStore(newIntegration("cap-1", domain.IntegrationCapterra, domain.IntegrationConfig{APIKey: "k"}))
	fetcher := &stubFetcher{reviews: []domain.SourceReview{
		domain.CapterraReview{ID: "1", Title: "Good", Review: "Good product overall"},
		domain.CapterraReview{ID: "2", Title: "Empty", Review: ""},
	}}
	runner := newTestRunner(store, WithFetcher(fetcher))

	res, err := runner.Sync(context.Background(), "cap-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "Partial: 1 failed", domain.StringValue(store.integration("cap-1").LastSyncError))
}

func TestSyncEmptyBatchCompletes(t *testing.T) {
	store := newMemoryStore(newIntegration("cap-1", domain.IntegrationCapterra, domain.IntegrationConfig{APIKey: "k"}))
	runner := newTestRunner(store, WithFetcher(&stubFetcher{}))

	res, err := runner.Sync(context.Background(), "cap-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	in := store.integration("cap-1")
	assert.Equal(t, domain.SyncCompleted, in.LastSyncStatus)
	assert.Nil(t, in.LastSyncError)
	assert.Zero(t, in.LastSyncTotal)
}

func TestSyncFetchErrorKeepsCounters(t *testing.T) {
	in := newIntegration("cap-1", domain.IntegrationCapterra, domain.IntegrationConfig{APIKey: "k"})
	in.LastSyncTotal, in.LastSyncImported = 7, 7
	store := newMemoryStore(in)
	runner := newTestRunner(store, WithFetcher(&stubFetcher{err: fmt.Errorf("%w: Capterra API error (503)", domain.ErrRemoteSource)}))

	_, err := runner.Sync(context.Background(), "cap-1")
	assert.ErrorIs(t, err, domain.ErrRemoteSource)

	got := store.integration("cap-1")
	assert.Equal(t, domain.SyncFailed, got.LastSyncStatus)
	assert.Equal(t, 7, got.LastSyncTotal)
	assert.Equal(t, 7, got.LastSyncImported)
}

func TestSyncInactiveAndUnsupported(t *testing.T) {
	inactive := newIntegration("g2-off", domain.IntegrationG2, domain.IntegrationConfig{APIKey: "k"})
	inactive.IsActive = false
	store := newMemoryStore(inactive, newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}))
	fetcher := &stubFetcher{}
	runner := newTestRunner(store, WithFetcher(fetcher))

	res, err := runner.Sync(context.Background(), "g2-off")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Integration is not active", res.Message)

	_, err = runner.Sync(context.Background(), "gartner-1")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)

	assert.Zero(t, fetcher.calls)
	assert.Empty(t, store.updates)
}

func TestSyncAll(t *testing.T) {
	off := newIntegration("g2-off", domain.IntegrationG2, domain.IntegrationConfig{APIKey: "k"})
	off.IsActive = false
	store := newMemoryStore(
		newIntegration("cap-1", domain.IntegrationCapterra, domain.IntegrationConfig{APIKey: "k"}),
		newIntegration("g2-nokey", domain.IntegrationG2, domain.IntegrationConfig{}),
		newIntegration("gartner-1", domain.IntegrationGartner, domain.IntegrationConfig{}),
		off,
	)
	g2 := &fakeG2{}
	capterra := &fakeCapterra{reviews: []domain.CapterraReview{{ID: "1", Title: "Nice", Review: "Nice and stable"}}}
	runner := newTestRunner(store, WithFetcher(NewRemoteFetcher(g2, capterra, store, DefaultDefaults(), quietLogger())))

	reports, err := runner.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byID := map[string]SyncReport{}
	for _, r := range reports {
		byID[r.IntegrationID] = r
	}
	assert.True(t, byID["cap-1"].Success)
	assert.Equal(t, 1, byID["cap-1"].Result.Imported)
	assert.False(t, byID["g2-nokey"].Success)
	assert.Contains(t, byID["g2-nokey"].Error, "API key not configured")
}

func TestTrackerReset(t *testing.T) {
	in := newIntegration("g2-1", domain.IntegrationG2, domain.IntegrationConfig{})
	in.LastSyncStatus = domain.SyncRunning
	msg := "stuck"
	in.LastSyncError = &msg
	store := newMemoryStore(in)
	tracker := NewTracker(store, quietLogger())

	require.NoError(t, tracker.Reset(context.Background(), "g2-1"))
	snap, err := tracker.Snapshot(context.Background(), "g2-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncPending, snap.Status)
	assert.Nil(t, snap.Error)

	assert.True(t, errors.Is(tracker.Reset(context.Background(), "nope"), domain.ErrNotFound))
}
