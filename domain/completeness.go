package domain

import (
	"math"
	"strings"
)

type CompletenessField struct {
	Label   string `json:"label"`
	Weight  int    `json:"weight"`
	Present bool   `json:"present"`
}

type Completeness struct {
	Score   int                 `json:"score"`
	Label   string              `json:"label"`
	Fields  []CompletenessField `json:"fields"`
	Missing []string            `json:"missing"`
}

// placeholder values written by imports count as missing
func hasValue(s string, placeholders ...string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, p := range placeholders {
		if strings.EqualFold(s, p) {
			return false
		}
	}
	return true
}

func isPlaceholderEmail(email string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(email)), "imported@")
}

// ScoreCompleteness rates how much of an evidence record an operator has filled in.
func ScoreCompleteness(e *Evidence) Completeness {
	fields := []CompletenessField{
		{Label: "Customer Name", Weight: 1, Present: hasValue(e.CustomerName, "Anonymous")},
		{Label: "Company", Weight: 1, Present: hasValue(e.Company, "Not specified")},
		{Label: "Email", Weight: 1, Present: hasValue(e.Email) && !isPlaceholderEmail(e.Email)},
		{Label: "Job Title", Weight: 1, Present: hasValue(StringValue(e.JobTitle))},
		{Label: "Content", Weight: 2, Present: hasValue(e.Content)},
		{Label: "Results", Weight: 1, Present: hasValue(StringValue(e.Results))},
		{Label: "Use Cases", Weight: 1, Present: hasValue(StringValue(e.UseCases))},
		{Label: "Company Size", Weight: 1, Present: hasValue(StringValue(e.CompanySize))},
		{Label: "Industry", Weight: 1, Present: hasValue(StringValue(e.Industry))},
		{Label: "Rating", Weight: 1, Present: e.Rating != nil && *e.Rating > 0},
		{Label: "Review Date", Weight: 1, Present: hasValue(StringValue(e.ReviewDate))},
		{Label: "Reviewer Avatar", Weight: 1, Present: hasValue(StringValue(e.ReviewerAvatar))},
		{Label: "External URL", Weight: 1, Present: hasValue(StringValue(e.ExternalURL))},
	}

	var total, earned int
	missing := []string{}
	for _, f := range fields {
		total += f.Weight
		if f.Present {
			earned += f.Weight
		} else {
			missing = append(missing, f.Label)
		}
	}

	score := int(math.Round(float64(earned) / float64(total) * 100))
	return Completeness{
		Score:   score,
		Label:   CompletenessLabel(score),
		Fields:  fields,
		Missing: missing,
	}
}

func CompletenessLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Incomplete"
	}
}
