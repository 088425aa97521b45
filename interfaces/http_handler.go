package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
	"evidence-hub/importer"
)

type EvidenceStore interface {
	CreateEvidence(ctx context.Context, e *domain.Evidence) error
	GetEvidence(ctx context.Context, id string) (*domain.Evidence, error)
	ListEvidence(ctx context.Context, f domain.EvidenceFilter) ([]domain.Evidence, error)
	SaveEvidence(ctx context.Context, e *domain.Evidence) error
	UpdateStatus(ctx context.Context, id string, status domain.EvidenceStatus) error
	DeleteEvidence(ctx context.Context, id string) error
}

type IntegrationStore interface {
	CreateIntegration(ctx context.Context, in *domain.Integration) error
	GetIntegration(ctx context.Context, id string) (*domain.Integration, error)
	ListIntegrations(ctx context.Context, activeOnly bool) ([]domain.Integration, error)
	SaveIntegration(ctx context.Context, in *domain.Integration) error
	DeleteIntegration(ctx context.Context, id string) error
}

type RoleLookup interface {
	RolesForUser(ctx context.Context, userID string) (domain.Roles, error)
}

type TextExtractor interface {
	ExtractTextFromFile(file io.Reader, filename string) (text string, format string, err error)
}

type ProductResolver interface {
	ResolveProduct(ctx context.Context, apiKey, slug string) (*domain.G2Product, error)
}

type Dependencies struct {
	Evidence     EvidenceStore
	Integrations IntegrationStore
	Roles        RoleLookup
	Runner       *importer.Runner
	Parser       *importer.Parser
	Extractor    TextExtractor
	G2           ProductResolver
	Dispatcher   SyncDispatcher
	Log          *logrus.Logger
}

type HTTPHandler struct {
	Dependencies
}

func NewHTTPHandler(router *gin.Engine, deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{Dependencies: deps}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	public := router.Group("/public")
	public.GET("/wall", h.GetWall)
	public.GET("/evidence/:id", h.GetPublishedEvidence)
	public.GET("/widget", h.GetWidget)

	// submissions are open; the submitter is recorded when known
	router.POST("/evidence", h.SubmitEvidence)

	review := router.Group("/", RequireRoles(h.Roles, domain.RoleAdmin, domain.RoleReviewer))
	review.GET("/evidence", h.ListEvidence)
	review.GET("/evidence/export", h.ExportEvidence)
	review.GET("/evidence/:id", h.GetEvidence)
	review.PUT("/evidence/:id", h.UpdateEvidence)
	review.POST("/evidence/:id/status", h.ChangeStatus)
	review.POST("/evidence/bulk-status", h.BulkChangeStatus)

	admin := router.Group("/", RequireRoles(h.Roles, domain.RoleAdmin))
	admin.DELETE("/evidence/:id", h.DeleteEvidence)
	admin.GET("/integrations", h.ListIntegrations)
	admin.POST("/integrations", h.CreateIntegration)
	admin.POST("/integrations/sync-all", h.SyncAll)
	admin.GET("/integrations/:id", h.GetIntegration)
	admin.PUT("/integrations/:id", h.UpdateIntegration)
	admin.DELETE("/integrations/:id", h.DeleteIntegration)
	admin.GET("/integrations/:id/status", h.GetSyncStatus)
	admin.POST("/integrations/:id/sync", h.SyncIntegration)
	admin.POST("/integrations/:id/reset", h.ResetSyncStatus)
	admin.POST("/integrations/:id/import", h.ImportReviews)
	admin.POST("/integrations/:id/import/paste", h.ImportPaste)
	admin.POST("/integrations/:id/import/file", h.ImportFile)
	admin.POST("/integrations/:id/preview", h.PreviewImport)

	return h
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedSource):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEvidence), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRemoteSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// writeResult reports an import run. Runs that did not complete answer
// non-2xx with the run summary in the body.
func (h *HTTPHandler) writeResult(c *gin.Context, res *importer.Result, err error) {
	switch {
	case err != nil && res == nil:
		h.writeError(c, err)
	case err != nil:
		c.JSON(statusFor(err), gin.H{
			"success": false,
			"error":   err.Error(),
			"message": res.Message,
		})
	case res.Success:
		c.JSON(http.StatusOK, res)
	default:
		c.JSON(http.StatusUnprocessableEntity, res)
	}
}
