package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
)

type CapterraClient struct {
	remoteClient
	baseURL  string
	perPage  int
	maxPages int
}

func NewCapterraClient(cfg RemoteConfig, limiter *HostLimiter, log *logrus.Logger) *CapterraClient {
	return &CapterraClient{
		remoteClient: newRemoteClient("Capterra", cfg, limiter, log),
		baseURL:      strings.TrimRight(cfg.CapterraBaseURL, "/"),
		perPage:      cfg.PerPage,
		maxPages:     cfg.MaxPages,
	}
}

type capterraReviewPage struct {
	Reviews []domain.CapterraReview `json:"reviews"`
}

func (c *CapterraClient) ListReviews(ctx context.Context, apiKey, productID string) ([]domain.CapterraReview, error) {
	var all []domain.CapterraReview
	for page := 1; page <= c.maxPages; page++ {
		endpoint := fmt.Sprintf("%s/v1/products/%s/reviews?page=%d&per_page=%d",
			c.baseURL, url.PathEscape(productID), page, c.perPage)

		var body capterraReviewPage
		if err := c.getJSON(ctx, endpoint, apiKey, "application/json", &body); err != nil {
			if isUnauthorized(err) {
				return nil, fmt.Errorf("invalid Capterra API key: %w", err)
			}
			return nil, err
		}
		all = append(all, body.Reviews...)
		if len(body.Reviews) < c.perPage {
			break
		}
	}
	return all, nil
}
