package importer

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"evidence-hub/domain"
)

type memoryStore struct {
	mu           sync.Mutex
	integrations map[string]*domain.Integration
	evidence     []*domain.Evidence
	keys         map[string]bool
	updates      []domain.SyncUpdate
	createErr    func(e *domain.Evidence) error
}

func newMemoryStore(integrations ...*domain.Integration) *memoryStore {
	s := &memoryStore{integrations: map[string]*domain.Integration{}, keys: map[string]bool{}}
	for _, in := range integrations {
		s.integrations[in.ID] = in
	}
	return s
}

func (s *memoryStore) CreateEvidence(ctx context.Context, e *domain.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		if err := s.createErr(e); err != nil {
			return err
		}
	}
	key := domain.StringValue(e.IntegrationSource) + "|" + domain.StringValue(e.ExternalID)
	if s.keys[key] {
		return domain.ErrDuplicateEvidence
	}
	s.keys[key] = true
	s.evidence = append(s.evidence, e)
	return nil
}

func (s *memoryStore) GetIntegration(ctx context.Context, id string) (*domain.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (s *memoryStore) ListIntegrations(ctx context.Context, activeOnly bool) ([]domain.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Integration
	for _, in := range s.integrations {
		if activeOnly && !in.IsActive {
			continue
		}
		out = append(out, *in)
	}
	return out, nil
}

func (s *memoryStore) UpdateSyncStatus(ctx context.Context, id string, u domain.SyncUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.updates = append(s.updates, u)
	in.LastSyncStatus = u.Status
	if u.At != nil {
		in.LastSyncAt = u.At
	}
	if u.Error != nil {
		msg := *u.Error
		in.LastSyncError = &msg
	} else if u.ClearError {
		in.LastSyncError = nil
	}
	if u.Counts != nil {
		in.LastSyncTotal = u.Counts.Total
		in.LastSyncImported = u.Counts.Imported
		in.LastSyncSkipped = u.Counts.Skipped
		in.LastSyncFailed = u.Counts.Failed
	}
	return nil
}

func (s *memoryStore) UpdateIntegrationConfig(ctx context.Context, id string, cfg domain.IntegrationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[id]
	if !ok {
		return domain.ErrNotFound
	}
	in.Config = datatypes.NewJSONType(cfg)
	return nil
}

func (s *memoryStore) integration(id string) domain.Integration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.integrations[id]
}

var errInsert = errors.New("column \"rating\" is of type integer")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newIntegration(id string, typ domain.IntegrationType, cfg domain.IntegrationConfig) *domain.Integration {
	return &domain.Integration{
		ID:              id,
		IntegrationType: typ,
		ProductID:       "acme-analytics",
		Config:          datatypes.NewJSONType(cfg),
		IsActive:        true,
		LastSyncStatus:  domain.SyncPending,
	}
}
