package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evidence-hub/domain"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a", "gartner_2p"},
		{"John Doe_Great support_Jan 5, 2024", "gartner_nk7d37"},
		{"Anonymous_Gartner Review_", "gartner_uo0e6k"},
		// astral characters hash as two UTF-16 units
		{"Zoë_😀_", "gartner_si6uvn"},
		{"", "gartner_0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, HashKey("gartner", tt.key))
		})
	}
}

func TestExternalID(t *testing.T) {
	parsed := domain.ParsedReview{ReviewerName: "John Doe", Title: "Great support", Date: "Jan 5, 2024", Content: "x"}
	assert.Equal(t, "gartner_nk7d37", ExternalID(domain.IntegrationGartner, parsed))

	// content does not take part in the key
	parsed.Content = "something else entirely"
	assert.Equal(t, "gartner_nk7d37", ExternalID(domain.IntegrationGartner, parsed))

	// the source tag separates identical pastes into different integrations
	assert.Equal(t, "g2_nk7d37", ExternalID(domain.IntegrationG2, parsed))

	assert.Equal(t, "991", ExternalID(domain.IntegrationG2, domain.G2Review{ID: "991"}))
	assert.Equal(t, "cap-1", ExternalID(domain.IntegrationCapterra, domain.CapterraReview{ID: "cap-1"}))

	noID := domain.CapterraReview{Title: "Nice", Reviewer: domain.CapterraReviewer{Name: "Ann"}, Date: "2024-01-01"}
	assert.Equal(t, HashKey("capterra", "Ann_Nice_2024-01-01"), ExternalID(domain.IntegrationCapterra, noID))
}
