package interfaces

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"evidence-hub/domain"
	"evidence-hub/importer"
)

// integrationView is the admin read model. The api key never leaves the server.
type integrationView struct {
	ID              string                 `json:"id"`
	IntegrationType domain.IntegrationType `json:"integration_type"`
	ProductID       string                 `json:"product_id"`
	ProductUUID     string                 `json:"product_uuid,omitempty"`
	ProductName     string                 `json:"product_name,omitempty"`
	HasAPIKey       bool                   `json:"has_api_key"`
	IsActive        bool                   `json:"is_active"`
	SyncFrequency   string                 `json:"sync_frequency"`
	CreatedBy       string                 `json:"created_by,omitempty"`
	Sync            *importer.SyncSnapshot `json:"sync"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func viewOf(in *domain.Integration) integrationView {
	cfg := in.Settings()
	return integrationView{
		ID:              in.ID,
		IntegrationType: in.IntegrationType,
		ProductID:       in.ProductID,
		ProductUUID:     cfg.ProductUUID,
		ProductName:     cfg.ProductName,
		HasAPIKey:       strings.TrimSpace(cfg.APIKey) != "",
		IsActive:        in.IsActive,
		SyncFrequency:   in.SyncFrequency,
		CreatedBy:       cfg.CreatedBy,
		Sync:            importer.SnapshotOf(in),
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
	}
}

type createIntegrationRequest struct {
	IntegrationType domain.IntegrationType `json:"integration_type" binding:"required"`
	ProductID       string                 `json:"product_id" binding:"required"`
	APIKey          string                 `json:"api_key"`
	IsActive        *bool                  `json:"is_active"`
	SyncFrequency   string                 `json:"sync_frequency"`
}

type updateIntegrationRequest struct {
	ProductID     *string `json:"product_id"`
	APIKey        *string `json:"api_key"`
	IsActive      *bool   `json:"is_active"`
	SyncFrequency *string `json:"sync_frequency"`
}

func (h *HTTPHandler) ListIntegrations(c *gin.Context) {
	list, err := h.Integrations.ListIntegrations(c.Request.Context(), false)
	if err != nil {
		h.writeError(c, err)
		return
	}
	views := make([]integrationView, len(list))
	for i := range list {
		views[i] = viewOf(&list[i])
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

// CreateIntegration registers a review source. For G2 the product slug is
// resolved up front so a bad key or slug is reported immediately.
func (h *HTTPHandler) CreateIntegration(c *gin.Context) {
	var req createIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.IntegrationType.Valid() {
		h.writeError(c, fmt.Errorf("%w: unknown integration type %q", domain.ErrInvalidInput, req.IntegrationType))
		return
	}

	cfg := domain.IntegrationConfig{
		APIKey:    strings.TrimSpace(req.APIKey),
		CreatedBy: currentUser(c),
	}
	productID := strings.TrimSpace(req.ProductID)

	if req.IntegrationType == domain.IntegrationG2 {
		if cfg.APIKey == "" {
			h.writeError(c, fmt.Errorf("%w: G2 API key is required", domain.ErrInvalidInput))
			return
		}
		if h.G2 != nil {
			product, err := h.G2.ResolveProduct(c.Request.Context(), cfg.APIKey, productID)
			if err != nil {
				h.writeError(c, err)
				return
			}
			cfg.ProductUUID = product.UUID
			cfg.ProductSlug = product.Slug
			cfg.ProductName = product.Name
		}
	}

	in := &domain.Integration{
		IntegrationType: req.IntegrationType,
		ProductID:       productID,
		Config:          datatypes.NewJSONType(cfg),
		IsActive:        req.IsActive == nil || *req.IsActive,
		SyncFrequency:   req.SyncFrequency,
	}
	if err := h.Integrations.CreateIntegration(c.Request.Context(), in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(in))
}

func (h *HTTPHandler) GetIntegration(c *gin.Context) {
	in, err := h.Integrations.GetIntegration(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(in))
}

func (h *HTTPHandler) UpdateIntegration(c *gin.Context) {
	var req updateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, err := h.Integrations.GetIntegration(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	cfg := in.Settings()
	if req.ProductID != nil {
		productID := strings.TrimSpace(*req.ProductID)
		if productID == "" {
			h.writeError(c, fmt.Errorf("%w: product_id cannot be empty", domain.ErrInvalidInput))
			return
		}
		if productID != in.ProductID {
			// the cached G2 uuid belongs to the old product
			cfg.ProductUUID, cfg.ProductSlug, cfg.ProductName = "", "", ""
			in.ProductID = productID
		}
	}
	if req.APIKey != nil {
		cfg.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	if req.SyncFrequency != nil && *req.SyncFrequency != "" {
		in.SyncFrequency = *req.SyncFrequency
	}
	in.Config = datatypes.NewJSONType(cfg)

	if err := h.Integrations.SaveIntegration(c.Request.Context(), in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(in))
}

func (h *HTTPHandler) DeleteIntegration(c *gin.Context) {
	if err := h.Integrations.DeleteIntegration(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetSyncStatus(c *gin.Context) {
	snap, err := h.Runner.Tracker().Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func waitRequested(c *gin.Context) bool {
	return c.Query("wait") == "true"
}

// SyncIntegration queues a sync, or runs it in the request with ?wait=true.
func (h *HTTPHandler) SyncIntegration(c *gin.Context) {
	id := c.Param("id")
	if waitRequested(c) || h.Dispatcher == nil {
		res, err := h.Runner.Sync(c.Request.Context(), id)
		h.writeResult(c, res, err)
		return
	}

	in, err := h.Integrations.GetIntegration(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !in.IntegrationType.HasRemoteAPI() {
		h.writeError(c, fmt.Errorf("%w: %s reviews are imported by paste or upload", domain.ErrUnsupportedSource, in.IntegrationType))
		return
	}
	if !in.IsActive {
		c.JSON(http.StatusUnprocessableEntity, importer.Result{Success: false, Message: "Integration is not active"})
		return
	}

	if err := h.Dispatcher.Dispatch(c.Request.Context(), in.ID, currentUser(c)); err != nil {
		h.Log.WithError(err).WithField("integration_id", in.ID).Error("failed to dispatch sync")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue sync"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"integration_id": in.ID, "status": "queued"})
}

func (h *HTTPHandler) SyncAll(c *gin.Context) {
	ctx := c.Request.Context()
	if waitRequested(c) || h.Dispatcher == nil {
		reports, err := h.Runner.SyncAll(ctx)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": reports})
		return
	}

	list, err := h.Integrations.ListIntegrations(ctx, true)
	if err != nil {
		h.writeError(c, err)
		return
	}
	queued := []string{}
	var errs []error
	for _, in := range list {
		if !in.IntegrationType.HasRemoteAPI() {
			continue
		}
		if err := h.Dispatcher.Dispatch(ctx, in.ID, currentUser(c)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", in.ID, err))
			continue
		}
		queued = append(queued, in.ID)
	}
	if err := errors.Join(errs...); err != nil {
		h.Log.WithError(err).Error("failed to dispatch some syncs")
		c.JSON(http.StatusInternalServerError, gin.H{"queued": queued, "error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

func (h *HTTPHandler) ResetSyncStatus(c *gin.Context) {
	id := c.Param("id")
	if err := h.Runner.Tracker().Reset(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	snap, err := h.Runner.Tracker().Snapshot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
