package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
)

const defaultMaxErrors = 3

type EvidenceWriter interface {
	CreateEvidence(ctx context.Context, e *domain.Evidence) error
}

type IntegrationStore interface {
	StatusStore
	ListIntegrations(ctx context.Context, activeOnly bool) ([]domain.Integration, error)
}

// Fetcher pulls the current review batch for an integration from its remote API.
type Fetcher interface {
	Fetch(ctx context.Context, integration *domain.Integration) ([]domain.SourceReview, error)
}

type Result struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Status   domain.SyncStatus `json:"status,omitempty"`
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Total    int               `json:"total"`
	Errors   []string          `json:"errors,omitempty"`
}

// SyncReport is one entry of a sync-all run.
type SyncReport struct {
	IntegrationID string                 `json:"integration_id"`
	Type          domain.IntegrationType `json:"type"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	Result        *Result                `json:"data,omitempty"`
}

// Runner executes import runs: one batch for one integration, one review at a
// time. Runs on the same integration are not serialized; the unique
// (source, external id) index is what keeps content from duplicating.
type Runner struct {
	evidence     EvidenceWriter
	integrations IntegrationStore
	normalizer   *Normalizer
	tracker      *Tracker
	fetcher      Fetcher
	maxErrors    int
	log          *logrus.Logger
}

type Option func(*Runner)

func WithFetcher(f Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithMaxErrors caps how many per-review error messages a run keeps.
func WithMaxErrors(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxErrors = n
		}
	}
}

func NewRunner(evidence EvidenceWriter, integrations IntegrationStore, normalizer *Normalizer, log *logrus.Logger, opts ...Option) *Runner {
	r := &Runner{
		evidence:     evidence,
		integrations: integrations,
		normalizer:   normalizer,
		tracker:      NewTracker(integrations, log),
		maxErrors:    defaultMaxErrors,
		log:          log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Tracker() *Tracker { return r.tracker }

// Import runs a caller-supplied batch of parsed reviews against an integration.
func (r *Runner) Import(ctx context.Context, integrationID string, reviews []domain.ParsedReview) (*Result, error) {
	if strings.TrimSpace(integrationID) == "" {
		return nil, fmt.Errorf("%w: integration id is required", domain.ErrInvalidInput)
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("%w: no reviews provided", domain.ErrInvalidInput)
	}
	in, err := r.integrations.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	batch := make([]domain.SourceReview, len(reviews))
	for i, review := range reviews {
		batch[i] = review
	}
	return r.run(ctx, in, func(context.Context) ([]domain.SourceReview, error) {
		return batch, nil
	})
}

// Sync fetches the integration's reviews from its remote API and imports them.
func (r *Runner) Sync(ctx context.Context, integrationID string) (*Result, error) {
	if strings.TrimSpace(integrationID) == "" {
		return nil, fmt.Errorf("%w: integration id is required", domain.ErrInvalidInput)
	}
	in, err := r.integrations.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if !in.IntegrationType.HasRemoteAPI() {
		return nil, fmt.Errorf("%w: %s reviews are imported by paste or upload", domain.ErrUnsupportedSource, in.IntegrationType)
	}
	if !in.IsActive {
		return &Result{Success: false, Message: "Integration is not active"}, nil
	}
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: no remote client configured", domain.ErrUnsupportedSource)
	}
	return r.run(ctx, in, func(ctx context.Context) ([]domain.SourceReview, error) {
		return r.fetcher.Fetch(ctx, in)
	})
}

// SyncAll syncs every active integration that has a remote API, one after another.
func (r *Runner) SyncAll(ctx context.Context) ([]SyncReport, error) {
	list, err := r.integrations.ListIntegrations(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active integrations: %w", err)
	}

	reports := []SyncReport{}
	for _, in := range list {
		if !in.IntegrationType.HasRemoteAPI() {
			continue
		}
		report := SyncReport{IntegrationID: in.ID, Type: in.IntegrationType}
		res, err := r.Sync(ctx, in.ID)
		switch {
		case err != nil:
			report.Error = err.Error()
		case !res.Success:
			report.Error = res.Message
			report.Result = res
		default:
			report.Success = true
			report.Result = res
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) run(ctx context.Context, in *domain.Integration, load func(context.Context) ([]domain.SourceReview, error)) (*Result, error) {
	log := r.log.WithFields(logrus.Fields{
		"component":      "importer",
		"integration_id": in.ID,
		"source":         in.IntegrationType,
	})

	if err := r.tracker.Start(ctx, in.ID); err != nil {
		return nil, err
	}
	// status write-back must land even if the caller goes away mid-run
	writeCtx := context.WithoutCancel(ctx)

	reviews, err := load(ctx)
	if err != nil {
		log.WithError(err).Error("sync run failed")
		if ferr := r.tracker.Fail(writeCtx, in.ID, err.Error()); ferr != nil {
			log.WithError(ferr).Error("could not record failed run")
		}
		return &Result{Success: false, Status: domain.SyncFailed, Message: err.Error()}, err
	}

	res := r.process(ctx, in, reviews, log)
	outcome := r.classify(res)
	res.Status = outcome.Status
	res.Success = outcome.Status == domain.SyncCompleted

	if err := r.tracker.Finish(writeCtx, in.ID, outcome); err != nil {
		log.WithError(err).Error("could not record run outcome")
		return res, err
	}

	log.WithFields(logrus.Fields{
		"status":   outcome.Status,
		"total":    res.Total,
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
	}).Info("import run finished")
	return res, nil
}

func (r *Runner) process(ctx context.Context, in *domain.Integration, reviews []domain.SourceReview, log *logrus.Entry) *Result {
	res := &Result{}
	for _, review := range reviews {
		res.Total++

		ev, err := r.normalizer.Normalize(in, review)
		if err == nil {
			err = r.evidence.CreateEvidence(ctx, ev)
		}

		switch {
		case err == nil:
			res.Imported++
		case errors.Is(err, domain.ErrDuplicateEvidence):
			res.Skipped++
			log.WithField("external_id", ExternalID(in.IntegrationType, review)).Debug("review already imported")
		default:
			res.Failed++
			label := ExternalID(in.IntegrationType, review)
			if ev != nil {
				label = ev.Title
			}
			if len(res.Errors) < r.maxErrors {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", label, err))
			}
			log.WithError(err).WithField("external_id", ExternalID(in.IntegrationType, review)).Warn("review import failed")
		}
	}
	res.Message = fmt.Sprintf("Imported %d, skipped %d, failed %d", res.Imported, res.Skipped, res.Failed)
	return res
}

// classify applies the run-level policy: a non-empty batch that imported
// nothing is a failed run, anything else completed.
func (r *Runner) classify(res *Result) Outcome {
	o := Outcome{
		Status: domain.SyncCompleted,
		Counts: domain.SyncCounts{
			Total:    res.Total,
			Imported: res.Imported,
			Skipped:  res.Skipped,
			Failed:   res.Failed,
		},
	}
	switch {
	case res.Total > 0 && res.Imported == 0:
		o.Status = domain.SyncFailed
		switch {
		case len(res.Errors) > 0:
			o.Error = "Failed to import: " + strings.Join(res.Errors, "; ")
		case res.Skipped > 0:
			o.Error = fmt.Sprintf("No reviews imported: %d skipped as duplicates", res.Skipped)
		default:
			o.Error = "No reviews imported"
		}
	case res.Failed > 0:
		o.Error = fmt.Sprintf("Partial: %d failed", res.Failed)
	}
	return o
}
