package interfaces

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidence-hub/infrastructure"
)

type recordingPublisher struct {
	jobs []infrastructure.SyncJob
	err  error
}

func (p *recordingPublisher) PublishSync(_ context.Context, job infrastructure.SyncJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func TestQueueDispatcher(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewQueueDispatcher(pub)

	require.NoError(t, d.Dispatch(context.Background(), "int-1", adminID))

	require.Len(t, pub.jobs, 1)
	assert.Equal(t, "int-1", pub.jobs[0].IntegrationID)
	assert.Equal(t, adminID, pub.jobs[0].RequestedBy)
	assert.False(t, pub.jobs[0].RequestedAt.IsZero())

	pub.err = errors.New("channel closed")
	assert.Error(t, d.Dispatch(context.Background(), "int-2", adminID))
}
