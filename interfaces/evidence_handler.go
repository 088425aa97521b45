package interfaces

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"evidence-hub/domain"
)

const (
	wallWords     = 35
	defaultWidget = 6
	maxWidget     = 50
)

type evidenceInput struct {
	CustomerName string              `json:"customer_name" binding:"required"`
	Company      string              `json:"company" binding:"required"`
	Email        string              `json:"email" binding:"required,email"`
	JobTitle     string              `json:"job_title"`
	EvidenceType domain.EvidenceType `json:"evidence_type" binding:"required"`
	Product      domain.ProductType  `json:"product" binding:"required"`
	Title        string              `json:"title" binding:"required"`
	Content      string              `json:"content" binding:"required"`
	Results      string              `json:"results"`
	UseCases     string              `json:"use_cases"`
	Rating       *float64            `json:"rating"`
	CompanySize  string              `json:"company_size"`
	Industry     string              `json:"industry"`
	FileURL      string              `json:"file_url"`
	ReviewData   *domain.ReviewData  `json:"review_data"`
}

func validateEvidence(t domain.EvidenceType, p domain.ProductType, rating *float64) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown evidence type %q", domain.ErrInvalidInput, t)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: unknown product %q", domain.ErrInvalidInput, p)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}
	return nil
}

// SubmitEvidence stores a manual submission. It always enters review as pending.
func (h *HTTPHandler) SubmitEvidence(c *gin.Context) {
	var req evidenceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateEvidence(req.EvidenceType, req.Product, req.Rating); err != nil {
		h.writeError(c, err)
		return
	}

	e := &domain.Evidence{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Company:      strings.TrimSpace(req.Company),
		Email:        strings.TrimSpace(req.Email),
		JobTitle:     domain.StringPtr(strings.TrimSpace(req.JobTitle)),
		EvidenceType: req.EvidenceType,
		Product:      req.Product,
		Title:        strings.TrimSpace(req.Title),
		Content:      strings.TrimSpace(req.Content),
		Results:      domain.StringPtr(strings.TrimSpace(req.Results)),
		UseCases:     domain.StringPtr(strings.TrimSpace(req.UseCases)),
		Status:       domain.StatusPending,
		Rating:       req.Rating,
		CompanySize:  domain.StringPtr(req.CompanySize),
		Industry:     domain.StringPtr(req.Industry),
		FileURL:      domain.StringPtr(req.FileURL),
		CreatedBy:    domain.StringPtr(currentUser(c)),
	}
	if req.ReviewData != nil {
		e.ReviewData = datatypes.NewJSONType(*req.ReviewData)
	}

	if err := h.Evidence.CreateEvidence(c.Request.Context(), e); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func filterFromQuery(c *gin.Context) domain.EvidenceFilter {
	f := domain.EvidenceFilter{
		Status:  domain.EvidenceStatus(c.Query("status")),
		Type:    domain.EvidenceType(c.Query("type")),
		Product: domain.ProductType(c.Query("product")),
		Source:  c.Query("source"),
		Query:   c.Query("q"),
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	return f
}

func (h *HTTPHandler) ListEvidence(c *gin.Context) {
	items, err := h.Evidence.ListEvidence(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *HTTPHandler) GetEvidence(c *gin.Context) {
	e, err := h.Evidence.GetEvidence(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"evidence":     e,
		"completeness": domain.ScoreCompleteness(e),
	})
}

type evidencePatch struct {
	CustomerName   *string              `json:"customer_name"`
	Company        *string              `json:"company"`
	Email          *string              `json:"email"`
	JobTitle       *string              `json:"job_title"`
	EvidenceType   *domain.EvidenceType `json:"evidence_type"`
	Product        *domain.ProductType  `json:"product"`
	Title          *string              `json:"title"`
	Content        *string              `json:"content"`
	Results        *string              `json:"results"`
	UseCases       *string              `json:"use_cases"`
	Rating         *float64             `json:"rating"`
	CompanySize    *string              `json:"company_size"`
	Industry       *string              `json:"industry"`
	ReviewerAvatar *string              `json:"reviewer_avatar"`
	ReviewDate     *string              `json:"review_date"`
	FileURL        *string              `json:"file_url"`
	ReviewData     *domain.ReviewData   `json:"review_data"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setOptional(dst **string, v *string) {
	if v != nil {
		*dst = domain.StringPtr(strings.TrimSpace(*v))
	}
}

// UpdateEvidence edits content fields. Status and provenance are not editable here.
func (h *HTTPHandler) UpdateEvidence(c *gin.Context) {
	var req evidencePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.Evidence.GetEvidence(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	setString(&e.CustomerName, req.CustomerName)
	setString(&e.Company, req.Company)
	setString(&e.Email, req.Email)
	setString(&e.Title, req.Title)
	setString(&e.Content, req.Content)
	setOptional(&e.JobTitle, req.JobTitle)
	setOptional(&e.Results, req.Results)
	setOptional(&e.UseCases, req.UseCases)
	setOptional(&e.CompanySize, req.CompanySize)
	setOptional(&e.Industry, req.Industry)
	setOptional(&e.ReviewerAvatar, req.ReviewerAvatar)
	setOptional(&e.ReviewDate, req.ReviewDate)
	setOptional(&e.FileURL, req.FileURL)
	if req.EvidenceType != nil {
		e.EvidenceType = *req.EvidenceType
	}
	if req.Product != nil {
		e.Product = *req.Product
	}
	if req.Rating != nil {
		e.Rating = req.Rating
		if *req.Rating == 0 {
			e.Rating = nil
		}
	}
	if req.ReviewData != nil {
		e.ReviewData = datatypes.NewJSONType(*req.ReviewData)
	}

	if err := validateEvidence(e.EvidenceType, e.Product, e.Rating); err != nil {
		h.writeError(c, err)
		return
	}
	if e.Title == "" || e.Content == "" {
		h.writeError(c, fmt.Errorf("%w: title and content are required", domain.ErrInvalidInput))
		return
	}

	if err := h.Evidence.SaveEvidence(c.Request.Context(), e); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type statusRequest struct {
	Status domain.EvidenceStatus `json:"status" binding:"required"`
}

func (h *HTTPHandler) ChangeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.transition(c, c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *HTTPHandler) transition(c *gin.Context, id string, to domain.EvidenceStatus) (*domain.Evidence, error) {
	ctx := c.Request.Context()
	e, err := h.Evidence.GetEvidence(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.TransitionTo(to); err != nil {
		return nil, err
	}
	if err := h.Evidence.UpdateStatus(ctx, e.ID, e.Status); err != nil {
		return nil, err
	}
	h.Log.WithFields(logrus.Fields{
		"evidence_id": e.ID,
		"status":      e.Status,
		"user_id":     currentUser(c),
	}).Info("evidence status changed")
	return e, nil
}

type bulkStatusRequest struct {
	IDs    []string              `json:"ids" binding:"required,min=1"`
	Status domain.EvidenceStatus `json:"status" binding:"required"`
}

type bulkRejection struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (h *HTTPHandler) BulkChangeStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := []string{}
	rejected := []bulkRejection{}
	for _, id := range req.IDs {
		if _, err := h.transition(c, id, req.Status); err != nil {
			rejected = append(rejected, bulkRejection{ID: id, Error: err.Error()})
			continue
		}
		updated = append(updated, id)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated, "rejected": rejected})
}

func (h *HTTPHandler) DeleteEvidence(c *gin.Context) {
	if err := h.Evidence.DeleteEvidence(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ExportEvidence(c *gin.Context) {
	items, err := h.Evidence.ListEvidence(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	switch c.DefaultQuery("format", "csv") {
	case "json":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="evidence-export-%s.json"`, stamp))
		c.JSON(http.StatusOK, items)
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="evidence-export-%s.csv"`, stamp))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := WriteEvidenceCSV(c.Writer, items); err != nil {
			h.Log.WithError(err).Error("csv export failed")
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
	}
}

func (h *HTTPHandler) publishedFilter(c *gin.Context) domain.EvidenceFilter {
	return domain.EvidenceFilter{
		Status:  domain.StatusPublished,
		Type:    domain.EvidenceType(c.Query("type")),
		Product: domain.ProductType(c.Query("product")),
	}
}

// GetWall serves the public showcase: published evidence, headline stats and
// the word cloud.
func (h *HTTPHandler) GetWall(c *gin.Context) {
	items, err := h.Evidence.ListEvidence(c.Request.Context(), h.publishedFilter(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": publicViews(items),
		"stats": domain.ComputeWallStats(items),
		"words": domain.TopWords(items, wallWords),
	})
}

func (h *HTTPHandler) GetPublishedEvidence(c *gin.Context) {
	e, err := h.Evidence.GetEvidence(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if e.Status != domain.StatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "evidence not found"})
		return
	}
	c.JSON(http.StatusOK, publicView(*e))
}

func (h *HTTPHandler) GetWidget(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultWidget)))
	if err != nil || limit <= 0 {
		limit = defaultWidget
	}
	if limit > maxWidget {
		limit = maxWidget
	}
	f := h.publishedFilter(c)
	f.Limit = limit

	items, err := h.Evidence.ListEvidence(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, gin.H{"items": publicViews(items)})
}

// publicEvidence leaves out contact details and provenance.
type publicEvidence struct {
	ID           string              `json:"id"`
	CustomerName string              `json:"customer_name"`
	Company      string              `json:"company"`
	JobTitle     *string             `json:"job_title,omitempty"`
	EvidenceType domain.EvidenceType `json:"evidence_type"`
	Product      domain.ProductType  `json:"product"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	Results      *string             `json:"results,omitempty"`
	Rating       *float64            `json:"rating,omitempty"`
	Avatar       *string             `json:"reviewer_avatar,omitempty"`
	Source       *string             `json:"integration_source,omitempty"`
	ExternalURL  *string             `json:"external_url,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func publicView(e domain.Evidence) publicEvidence {
	return publicEvidence{
		ID:           e.ID,
		CustomerName: e.CustomerName,
		Company:      e.Company,
		JobTitle:     e.JobTitle,
		EvidenceType: e.EvidenceType,
		Product:      e.Product,
		Title:        e.Title,
		Content:      e.Content,
		Results:      e.Results,
		Rating:       e.Rating,
		Avatar:       e.ReviewerAvatar,
		Source:       e.IntegrationSource,
		ExternalURL:  e.ExternalURL,
		CreatedAt:    e.CreatedAt,
	}
}

func publicViews(items []domain.Evidence) []publicEvidence {
	out := make([]publicEvidence, len(items))
	for i, e := range items {
		out[i] = publicView(e)
	}
	return out
}
