package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestScoreCompletenessImportedReview(t *testing.T) {
	e := &Evidence{
		CustomerName: "Anonymous",
		Company:      "Not specified",
		Email:        "imported@g2.com",
		Content:      "Great support",
		Rating:       ptr(4.0),
	}

	c := ScoreCompleteness(e)

	// content (2) + rating (1) out of 14
	assert.Equal(t, 21, c.Score)
	assert.Equal(t, "Incomplete", c.Label)
	assert.Contains(t, c.Missing, "Customer Name")
	assert.Contains(t, c.Missing, "Company")
	assert.Contains(t, c.Missing, "Email")
	assert.NotContains(t, c.Missing, "Content")
	assert.Len(t, c.Fields, 13)
}

func TestScoreCompletenessFull(t *testing.T) {
	e := &Evidence{
		CustomerName:   "Jane Roe",
		Company:        "Globex",
		Email:          "jane@globex.io",
		JobTitle:       ptr("VP Engineering"),
		Content:        "We cut onboarding time in half.",
		Results:        ptr("50% faster onboarding"),
		UseCases:       ptr("Onboarding"),
		CompanySize:    ptr("51-200"),
		Industry:       ptr("Logistics"),
		Rating:         ptr(5.0),
		ReviewDate:     ptr("2024-01-05"),
		ReviewerAvatar: ptr("https://cdn.example.com/a.png"),
		ExternalURL:    ptr("https://g2.com/r/1"),
	}

	c := ScoreCompleteness(e)
	assert.Equal(t, 100, c.Score)
	assert.Equal(t, "Excellent", c.Label)
	assert.Empty(t, c.Missing)
}

func TestCompletenessLabel(t *testing.T) {
	assert.Equal(t, "Excellent", CompletenessLabel(90))
	assert.Equal(t, "Good", CompletenessLabel(89))
	assert.Equal(t, "Good", CompletenessLabel(70))
	assert.Equal(t, "Fair", CompletenessLabel(50))
	assert.Equal(t, "Incomplete", CompletenessLabel(49))
}
