package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"evidence-hub/domain"
)

type G2API interface {
	ResolveProduct(ctx context.Context, apiKey, slug string) (*domain.G2Product, error)
	ListReviews(ctx context.Context, apiKey, productUUID string) ([]domain.G2Review, error)
}

type CapterraAPI interface {
	ListReviews(ctx context.Context, apiKey, productID string) ([]domain.CapterraReview, error)
}

type ConfigStore interface {
	UpdateIntegrationConfig(ctx context.Context, id string, cfg domain.IntegrationConfig) error
}

// RemoteFetcher adapts the G2 and Capterra clients to Fetcher.
type RemoteFetcher struct {
	g2       G2API
	capterra CapterraAPI
	configs  ConfigStore
	labels   Defaults
	log      *logrus.Logger
}

func NewRemoteFetcher(g2 G2API, capterra CapterraAPI, configs ConfigStore, defaults Defaults, log *logrus.Logger) *RemoteFetcher {
	return &RemoteFetcher{g2: g2, capterra: capterra, configs: configs, labels: defaults, log: log}
}

func (f *RemoteFetcher) Fetch(ctx context.Context, in *domain.Integration) ([]domain.SourceReview, error) {
	cfg := in.Settings()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s API key not configured. Please add your API key in the integration settings",
			domain.ErrMissingCredential, f.labels.Source(in.IntegrationType).Label)
	}

	switch in.IntegrationType {
	case domain.IntegrationG2:
		return f.fetchG2(ctx, in, cfg)
	case domain.IntegrationCapterra:
		return f.fetchCapterra(ctx, in, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, in.IntegrationType)
	}
}

func (f *RemoteFetcher) fetchG2(ctx context.Context, in *domain.Integration, cfg domain.IntegrationConfig) ([]domain.SourceReview, error) {
	if cfg.ProductUUID == "" {
		product, err := f.g2.ResolveProduct(ctx, cfg.APIKey, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve G2 product %q: %w", in.ProductID, err)
		}
		cfg.ProductUUID = product.UUID
		cfg.ProductSlug = product.Slug
		cfg.ProductName = product.Name
		in.Config = datatypes.NewJSONType(cfg)

		// the sync can go ahead without the cached uuid
		if err := f.configs.UpdateIntegrationConfig(ctx, in.ID, cfg); err != nil {
			f.log.WithError(err).WithField("integration_id", in.ID).Warn("could not store resolved G2 product")
		}
	}

	reviews, err := f.g2.ListReviews(ctx, cfg.APIKey, cfg.ProductUUID)
	if err != nil {
		return nil, fmt.Errorf("fetch G2 reviews: %w", err)
	}
	out := make([]domain.SourceReview, len(reviews))
	for i, r := range reviews {
		out[i] = r
	}
	return out, nil
}

func (f *RemoteFetcher) fetchCapterra(ctx context.Context, in *domain.Integration, cfg domain.IntegrationConfig) ([]domain.SourceReview, error) {
	reviews, err := f.capterra.ListReviews(ctx, cfg.APIKey, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("fetch Capterra reviews: %w", err)
	}
	out := make([]domain.SourceReview, len(reviews))
	for i, r := range reviews {
		out[i] = r
	}
	return out, nil
}
