package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EvidenceType string

const (
	EvidenceTestimonial EvidenceType = "testimonial"
	EvidenceCaseStudy   EvidenceType = "case-study"
	EvidenceReview      EvidenceType = "review"
	EvidenceQuote       EvidenceType = "quote"
	EvidenceVideo       EvidenceType = "video"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceTestimonial, EvidenceCaseStudy, EvidenceReview, EvidenceQuote, EvidenceVideo:
		return true
	}
	return false
}

type EvidenceStatus string

const (
	StatusPending   EvidenceStatus = "pending"
	StatusApproved  EvidenceStatus = "approved"
	StatusPublished EvidenceStatus = "published"
	StatusArchived  EvidenceStatus = "archived"
)

func (s EvidenceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type ProductType string

const (
	ProductPlatform    ProductType = "platform"
	ProductAnalytics   ProductType = "analytics"
	ProductIntegration ProductType = "integration"
	ProductAPI         ProductType = "api"
	ProductOther       ProductType = "other"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductPlatform, ProductAnalytics, ProductIntegration, ProductAPI, ProductOther:
		return true
	}
	return false
}

// ReviewData is the structured breakdown review sites ask reviewers for.
type ReviewData struct {
	Love            string `json:"love,omitempty"`
	Hate            string `json:"hate,omitempty"`
	ProblemsSolving string `json:"problems_solving,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
	BestUseCase     string `json:"best_use_case,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

func (r ReviewData) IsZero() bool {
	return r == ReviewData{}
}

type Evidence struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	CustomerName string         `gorm:"size:255;not null" json:"customer_name"`
	Company      string         `gorm:"size:255;not null" json:"company"`
	Email        string         `gorm:"size:255;not null" json:"email"`
	JobTitle     *string        `gorm:"size:255" json:"job_title"`
	EvidenceType EvidenceType   `gorm:"size:32;not null;index" json:"evidence_type"`
	Product      ProductType    `gorm:"size:32;not null" json:"product"`
	Title        string         `gorm:"size:500;not null" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Results      *string        `gorm:"type:text" json:"results"`
	UseCases     *string        `gorm:"type:text" json:"use_cases"`
	Status       EvidenceStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	Rating       *float64       `json:"rating"`

	ReviewData     datatypes.JSONType[ReviewData] `json:"review_data"`
	CompanySize    *string                        `gorm:"size:64" json:"company_size"`
	Industry       *string                        `gorm:"size:128" json:"industry"`
	ReviewerAvatar *string                        `gorm:"size:1024" json:"reviewer_avatar"`
	ReviewDate     *string                        `gorm:"size:64" json:"review_date"`

	// provenance; NULL for manual submissions
	IntegrationSource *string    `gorm:"size:32;uniqueIndex:idx_evidence_source_external" json:"integration_source"`
	ExternalID        *string    `gorm:"size:191;uniqueIndex:idx_evidence_source_external" json:"external_id"`
	ExternalURL       *string    `gorm:"size:1024" json:"external_url"`
	ImportedAt        *time.Time `json:"imported_at"`

	CreatedBy *string   `gorm:"size:64" json:"created_by"`
	FileURL   *string   `gorm:"size:1024" json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Evidence) TableName() string { return "evidence" }

func (e *Evidence) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// IsImported reports whether the record came from an integration run.
func (e *Evidence) IsImported() bool {
	return e.IntegrationSource != nil && e.ExternalID != nil
}

// EvidenceFilter narrows list queries. Zero values mean "any".
type EvidenceFilter struct {
	Status  EvidenceStatus
	Type    EvidenceType
	Product ProductType
	Source  string
	Query   string
	Limit   int
	Offset  int
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
