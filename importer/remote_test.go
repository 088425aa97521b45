package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evidence-hub/domain"
)

type fakeG2 struct {
	product     *domain.G2Product
	resolveErr  error
	reviews     []domain.G2Review
	resolved    []string
	listedUUIDs []string
}

func (f *fakeG2) ResolveProduct(ctx context.Context, apiKey, slug string) (*domain.G2Product, error) {
	f.resolved = append(f.resolved, slug)
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.product, nil
}

func (f *fakeG2) ListReviews(ctx context.Context, apiKey, productUUID string) ([]domain.G2Review, error) {
	f.listedUUIDs = append(f.listedUUIDs, productUUID)
	return f.reviews, nil
}

type fakeCapterra struct {
	reviews []domain.CapterraReview
	ids     []string
}

func (f *fakeCapterra) ListReviews(ctx context.Context, apiKey, productID string) ([]domain.CapterraReview, error) {
	f.ids = append(f.ids, productID)
	return f.reviews, nil
}

func TestRemoteFetcherResolvesAndStoresG2Product(t *testing.T) {
	in := newIntegration("g2-1", domain.IntegrationG2, domain.IntegrationConfig{APIKey: "secret"})
	store := newMemoryStore(in)
	g2 := &fakeG2{
		product: &domain.G2Product{UUID: "uuid-1", Slug: "acme-analytics", Name: "Acme Analytics"},
		reviews: []domain.G2Review{{ID: "r1", Text: "Great"}},
	}
	f := NewRemoteFetcher(g2, &fakeCapterra{}, store, DefaultDefaults(), quietLogger())

	current, err := store.GetIntegration(context.Background(), "g2-1")
	require.NoError(t, err)
	reviews, err := f.Fetch(context.Background(), current)
	require.NoError(t, err)

	require.Len(t, reviews, 1)
	assert.Equal(t, []string{"acme-analytics"}, g2.resolved)
	assert.Equal(t, []string{"uuid-1"}, g2.listedUUIDs)

	stored := store.integration("g2-1").Settings()
	assert.Equal(t, "uuid-1", stored.ProductUUID)
	assert.Equal(t, "Acme Analytics", stored.ProductName)
	assert.Equal(t, "secret", stored.APIKey)

	// second fetch uses the stored uuid
	current, err = store.GetIntegration(context.Background(), "g2-1")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), current)
	require.NoError(t, err)
	assert.Len(t, g2.resolved, 1)
}

func TestRemoteFetcherResolveFailure(t *testing.T) {
	in := newIntegration("g2-1", domain.IntegrationG2, domain.IntegrationConfig{APIKey: "secret"})
	g2 := &fakeG2{resolveErr: errors.New("G2 product not found")}
	f := NewRemoteFetcher(g2, &fakeCapterra{}, newMemoryStore(in), DefaultDefaults(), quietLogger())

	_, err := f.Fetch(context.Background(), in)
	assert.ErrorContains(t, err, `resolve G2 product "acme-analytics"`)
}

func TestRemoteFetcherCapterra(t *testing.T) {
	in := newIntegration("cap-1", domain.IntegrationCapterra, domain.IntegrationConfig{APIKey: "secret"})
	capterra := &fakeCapterra{reviews: []domain.CapterraReview{{ID: "1"}, {ID: "2"}}}
	f := NewRemoteFetcher(&fakeG2{}, capterra, newMemoryStore(in), DefaultDefaults(), quietLogger())

	reviews, err := f.Fetch(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, []string{"acme-analytics"}, capterra.ids)

	_, err = f.Fetch(context.Background(), newIntegration("x", domain.IntegrationGartner, domain.IntegrationConfig{APIKey: "k"}))
	assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
}
