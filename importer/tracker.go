package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
)

// StatusStore persists the last-run fields of an integration.
type StatusStore interface {
	GetIntegration(ctx context.Context, id string) (*domain.Integration, error)
	UpdateSyncStatus(ctx context.Context, id string, update domain.SyncUpdate) error
}

// Outcome is what a finished run writes back.
type Outcome struct {
	Status domain.SyncStatus
	Error  string
	Counts domain.SyncCounts
}

// SyncSnapshot is the read view of an integration's last run.
type SyncSnapshot struct {
	IntegrationID string                 `json:"integration_id"`
	Type          domain.IntegrationType `json:"integration_type"`
	Status        domain.SyncStatus      `json:"status"`
	At            *time.Time             `json:"last_sync_at"`
	Error         *string                `json:"error"`
	Total         int                    `json:"total"`
	Imported      int                    `json:"imported"`
	Skipped       int                    `json:"skipped"`
	Failed        int                    `json:"failed"`
}

// Tracker records the state of the most recent run per integration. It keeps
// no history and never retries.
type Tracker struct {
	store StatusStore
	now   func() time.Time
	log   *logrus.Logger
}

func NewTracker(store StatusStore, log *logrus.Logger) *Tracker {
	return &Tracker{store: store, now: time.Now, log: log}
}

func (t *Tracker) Start(ctx context.Context, integrationID string) error {
	if err := t.store.UpdateSyncStatus(ctx, integrationID, domain.SyncUpdate{Status: domain.SyncRunning}); err != nil {
		return fmt.Errorf("mark integration %s running: %w", integrationID, err)
	}
	return nil
}

func (t *Tracker) Finish(ctx context.Context, integrationID string, o Outcome) error {
	at := t.now().UTC()
	counts := o.Counts
	update := domain.SyncUpdate{
		Status: o.Status,
		At:     &at,
		Counts: &counts,
	}
	if o.Error != "" {
		update.Error = &o.Error
	} else {
		update.ClearError = true
	}
	if err := t.store.UpdateSyncStatus(ctx, integrationID, update); err != nil {
		return fmt.Errorf("record sync outcome for %s: %w", integrationID, err)
	}
	return nil
}

// Fail records a run that aborted before per-review accounting; the previous
// counters are left as they were.
func (t *Tracker) Fail(ctx context.Context, integrationID string, message string) error {
	at := t.now().UTC()
	update := domain.SyncUpdate{Status: domain.SyncFailed, At: &at, Error: &message}
	if err := t.store.UpdateSyncStatus(ctx, integrationID, update); err != nil {
		return fmt.Errorf("record sync failure for %s: %w", integrationID, err)
	}
	return nil
}

// Reset puts an integration back to pending, e.g. after a run was killed
// while marked running.
func (t *Tracker) Reset(ctx context.Context, integrationID string) error {
	if _, err := t.store.GetIntegration(ctx, integrationID); err != nil {
		return err
	}
	update := domain.SyncUpdate{Status: domain.SyncPending, ClearError: true}
	if err := t.store.UpdateSyncStatus(ctx, integrationID, update); err != nil {
		return fmt.Errorf("reset sync status for %s: %w", integrationID, err)
	}
	t.log.WithField("integration_id", integrationID).Info("sync status reset")
	return nil
}

func (t *Tracker) Snapshot(ctx context.Context, integrationID string) (*SyncSnapshot, error) {
	in, err := t.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	return SnapshotOf(in), nil
}

func SnapshotOf(in *domain.Integration) *SyncSnapshot {
	return &SyncSnapshot{
		IntegrationID: in.ID,
		Type:          in.IntegrationType,
		Status:        in.LastSyncStatus,
		At:            in.LastSyncAt,
		Error:         in.LastSyncError,
		Total:         in.LastSyncTotal,
		Imported:      in.LastSyncImported,
		Skipped:       in.LastSyncSkipped,
		Failed:        in.LastSyncFailed,
	}
}
