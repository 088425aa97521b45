package interfaces

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"evidence-hub/importer"
	"evidence-hub/infrastructure"
)

// SyncDispatcher hands a sync request off to run outside the request.
type SyncDispatcher interface {
	Dispatch(ctx context.Context, integrationID, requestedBy string) error
}

type SyncPublisher interface {
	PublishSync(ctx context.Context, job infrastructure.SyncJob) error
}

// QueueDispatcher publishes sync jobs for the worker process.
type QueueDispatcher struct {
	publisher SyncPublisher
}

func NewQueueDispatcher(p SyncPublisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: p}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, integrationID, requestedBy string) error {
	return d.publisher.PublishSync(ctx, infrastructure.SyncJob{
		IntegrationID: integrationID,
		RequestedBy:   requestedBy,
		RequestedAt:   time.Now().UTC(),
	})
}

// InlineDispatcher runs syncs in background goroutines of the serving process.
type InlineDispatcher struct {
	runner *importer.Runner
	log    *logrus.Logger
	wg     sync.WaitGroup
}

func NewInlineDispatcher(runner *importer.Runner, log *logrus.Logger) *InlineDispatcher {
	return &InlineDispatcher{runner: runner, log: log}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, integrationID, requestedBy string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res, err := d.runner.Sync(context.WithoutCancel(ctx), integrationID)
		entry := d.log.WithFields(logrus.Fields{
			"integration_id": integrationID,
			"requested_by":   requestedBy,
		})
		if err != nil {
			entry.WithError(err).Error("background sync failed")
			return
		}
		entry.WithField("message", res.Message).Info("background sync finished")
	}()
	return nil
}

// Wait blocks until every dispatched sync has returned.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}
