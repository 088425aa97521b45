package infrastructure

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"evidence-hub/domain"
)

type IntegrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) CreateIntegration(ctx context.Context, in *domain.Integration) error {
	if err := r.db.WithContext(ctx).Create(in).Error; err != nil {
		return fmt.Errorf("insert integration: %w", err)
	}
	return nil
}

func (r *IntegrationRepository) GetIntegration(ctx context.Context, id string) (*domain.Integration, error) {
	var in domain.Integration
	if err := r.db.WithContext(ctx).First(&in, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("integration %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load integration %s: %w", id, err)
	}
	return &in, nil
}

func (r *IntegrationRepository) ListIntegrations(ctx context.Context, activeOnly bool) ([]domain.Integration, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []domain.Integration
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return list, nil
}

func (r *IntegrationRepository) SaveIntegration(ctx context.Context, in *domain.Integration) error {
	if err := r.db.WithContext(ctx).Save(in).Error; err != nil {
		return fmt.Errorf("save integration %s: %w", in.ID, err)
	}
	return nil
}

func (r *IntegrationRepository) DeleteIntegration(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Integration{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete integration %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("integration %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateSyncStatus writes only the last-run columns so a run never clobbers
// configuration edited while it was in flight.
func (r *IntegrationRepository) UpdateSyncStatus(ctx context.Context, id string, u domain.SyncUpdate) error {
	updates := map[string]interface{}{"last_sync_status": u.Status}
	if u.At != nil {
		updates["last_sync_at"] = *u.At
	}
	if u.Error != nil {
		updates["last_sync_error"] = *u.Error
	} else if u.ClearError {
		updates["last_sync_error"] = nil
	}
	if u.Counts != nil {
		updates["last_sync_total"] = u.Counts.Total
		updates["last_sync_imported"] = u.Counts.Imported
		updates["last_sync_skipped"] = u.Counts.Skipped
		updates["last_sync_failed"] = u.Counts.Failed
	}

	err := r.db.WithContext(ctx).Model(&domain.Integration{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update sync status of %s: %w", id, err)
	}
	return nil
}

func (r *IntegrationRepository) UpdateIntegrationConfig(ctx context.Context, id string, cfg domain.IntegrationConfig) error {
	err := r.db.WithContext(ctx).Model(&domain.Integration{}).Where("id = ?", id).
		Update("config", datatypes.NewJSONType(cfg)).Error
	if err != nil {
		return fmt.Errorf("update config of %s: %w", id, err)
	}
	return nil
}
