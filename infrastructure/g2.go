package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"evidence-hub/domain"
)

const jsonAPI = "application/vnd.api+json"

// G2Client talks to the G2 data API.
type G2Client struct {
	remoteClient
	baseURL  string
	perPage  int
	maxPages int
	products *gocache.Cache
}

func NewG2Client(cfg RemoteConfig, limiter *HostLimiter, log *logrus.Logger) *G2Client {
	ttl := cfg.ResolveCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &G2Client{
		remoteClient: newRemoteClient("G2", cfg, limiter, log),
		baseURL:      strings.TrimRight(cfg.G2BaseURL, "/"),
		perPage:      cfg.PerPage,
		maxPages:     cfg.MaxPages,
		products:     gocache.New(ttl, 2*ttl),
	}
}

type g2ProductList struct {
	Data []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"attributes"`
	} `json:"data"`
}

// ResolveProduct maps a product slug to the product UUID the reviews endpoint
// needs. Results are cached per api key and slug.
func (c *G2Client) ResolveProduct(ctx context.Context, apiKey, slug string) (*domain.G2Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: G2 product slug is empty", domain.ErrInvalidInput)
	}
	cacheKey := apiKeyFingerprint(apiKey) + "|" + slug
	if cached, ok := c.products.Get(cacheKey); ok {
		return cached.(*domain.G2Product), nil
	}

	endpoint := fmt.Sprintf("%s/api/v2/products?filter[slug]=%s", c.baseURL, url.QueryEscape(slug))
	var list g2ProductList
	if err := c.getJSON(ctx, endpoint, apiKey, jsonAPI, &list); err != nil {
		if isUnauthorized(err) {
			return nil, fmt.Errorf("invalid G2 API key or insufficient permissions: %w", err)
		}
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, fmt.Errorf("%w: G2 product not found with slug %q", domain.ErrRemoteSource, slug)
	}

	p := &domain.G2Product{
		UUID: list.Data[0].ID,
		Slug: list.Data[0].Attributes.Slug,
		Name: list.Data[0].Attributes.Name,
	}
	if p.Slug == "" {
		p.Slug = slug
	}
	c.products.SetDefault(cacheKey, p)
	return p, nil
}

// g2ReviewPage accepts both the flat "reviews" listing and JSON:API "data".
type g2ReviewPage struct {
	Reviews []domain.G2Review `json:"reviews"`
	Data    []struct {
		ID         domain.RemoteID `json:"id"`
		Attributes domain.G2Review `json:"attributes"`
	} `json:"data"`
}

func (p g2ReviewPage) items() []domain.G2Review {
	if len(p.Reviews) > 0 {
		return p.Reviews
	}
	out := make([]domain.G2Review, 0, len(p.Data))
	for _, d := range p.Data {
		r := d.Attributes
		if r.ID == "" {
			r.ID = d.ID
		}
		out = append(out, r)
	}
	return out
}

func (c *G2Client) ListReviews(ctx context.Context, apiKey, productUUID string) ([]domain.G2Review, error) {
	var all []domain.G2Review
	for page := 1; page <= c.maxPages; page++ {
		endpoint := fmt.Sprintf("%s/api/v2/products/%s/reviews?page=%d&per_page=%d",
			c.baseURL, url.PathEscape(productUUID), page, c.perPage)

		var body g2ReviewPage
		if err := c.getJSON(ctx, endpoint, apiKey, jsonAPI, &body); err != nil {
			if isUnauthorized(err) {
				return nil, fmt.Errorf("invalid G2 API key or insufficient permissions: %w", err)
			}
			return nil, err
		}
		items := body.items()
		all = append(all, items...)
		if len(items) < c.perPage {
			break
		}
	}
	return all, nil
}
