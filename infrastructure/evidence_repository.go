package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"evidence-hub/domain"
)

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func (r *EvidenceRepository) CreateEvidence(ctx context.Context, e *domain.Evidence) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateEvidence,
				domain.StringValue(e.IntegrationSource), domain.StringValue(e.ExternalID))
		}
		return fmt.Errorf("insert evidence: %w", err)
	}
	return nil
}

func (r *EvidenceRepository) GetEvidence(ctx context.Context, id string) (*domain.Evidence, error) {
	var e domain.Evidence
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("evidence %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load evidence %s: %w", id, err)
	}
	return &e, nil
}

func (r *EvidenceRepository) ListEvidence(ctx context.Context, f domain.EvidenceFilter) ([]domain.Evidence, error) {
	q := r.db.WithContext(ctx).Model(&domain.Evidence{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("evidence_type = ?", f.Type)
	}
	if f.Product != "" {
		q = q.Where("product = ?", f.Product)
	}
	if f.Source != "" {
		q = q.Where("integration_source = ?", f.Source)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(company) LIKE ? OR LOWER(customer_name) LIKE ?",
			like, like, like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []domain.Evidence
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return items, nil
}

func (r *EvidenceRepository) SaveEvidence(ctx context.Context, e *domain.Evidence) error {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s/%s", domain.ErrDuplicateEvidence,
				domain.StringValue(e.IntegrationSource), domain.StringValue(e.ExternalID))
		}
		return fmt.Errorf("save evidence %s: %w", e.ID, err)
	}
	return nil
}

func (r *EvidenceRepository) UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.Evidence{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update evidence %s status: %w", id, err)
	}
	return nil
}

func (r *EvidenceRepository) DeleteEvidence(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Evidence{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete evidence %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("evidence %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
