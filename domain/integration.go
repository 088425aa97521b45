package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IntegrationType string

const (
	IntegrationG2       IntegrationType = "g2"
	IntegrationCapterra IntegrationType = "capterra"
	IntegrationGartner  IntegrationType = "gartner"
)

func (t IntegrationType) Valid() bool {
	switch t {
	case IntegrationG2, IntegrationCapterra, IntegrationGartner:
		return true
	}
	return false
}

// HasRemoteAPI is false for sources that can only be imported by paste or upload.
func (t IntegrationType) HasRemoteAPI() bool {
	return t == IntegrationG2 || t == IntegrationCapterra
}

type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

type IntegrationConfig struct {
	APIKey      string `json:"api_key,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	ProductUUID string `json:"product_uuid,omitempty"`
	ProductSlug string `json:"product_slug,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

type Integration struct {
	ID              string                                `gorm:"primaryKey;size:36" json:"id"`
	IntegrationType IntegrationType                       `gorm:"size:16;not null;index" json:"integration_type"`
	ProductID       string                                `gorm:"size:255;not null" json:"product_id"`
	Config          datatypes.JSONType[IntegrationConfig] `json:"config"`
	IsActive        bool                                  `gorm:"not null" json:"is_active"`
	SyncFrequency   string                                `gorm:"size:32;not null;default:daily" json:"sync_frequency"`

	LastSyncStatus   SyncStatus `gorm:"size:16;not null;default:pending" json:"last_sync_status"`
	LastSyncAt       *time.Time `json:"last_sync_at"`
	LastSyncError    *string    `gorm:"type:text" json:"last_sync_error"`
	LastSyncTotal    int        `json:"last_sync_total"`
	LastSyncImported int        `json:"last_sync_imported"`
	LastSyncSkipped  int        `json:"last_sync_skipped"`
	LastSyncFailed   int        `json:"last_sync_failed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Integration) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.LastSyncStatus == "" {
		i.LastSyncStatus = SyncPending
	}
	if i.SyncFrequency == "" {
		i.SyncFrequency = "daily"
	}
	return nil
}

func (i Integration) Settings() IntegrationConfig {
	return i.Config.Data()
}

// SyncCounts are the per-run counters written back after a run.
type SyncCounts struct {
	Total    int
	Imported int
	Skipped  int
	Failed   int
}

// SyncUpdate is one write to an integration's last-run fields. Nil fields
// are left untouched; ClearError writes NULL to last_sync_error.
type SyncUpdate struct {
	Status     SyncStatus
	At         *time.Time
	Error      *string
	ClearError bool
	Counts     *SyncCounts
}
