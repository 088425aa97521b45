package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePasteStructuredBlock(t *testing.T) {
	text := "5/5\nJohn Doe, CTO at Acme\nJan 5, 2024\nWhat do you like most: Great support\nWhat needs improvement: Pricing"

	reviews := ParsePaste(text)

	require.Len(t, reviews, 1)
	r := reviews[0]
	assert.Equal(t, 5.0, r.Rating)
	assert.Equal(t, "John Doe", r.ReviewerName)
	assert.Equal(t, "CTO", r.JobTitle)
	assert.Equal(t, "Acme", r.Company)
	assert.Equal(t, "Jan 5, 2024", r.Date)
	assert.Contains(t, r.Content, "Great support")
	assert.Contains(t, r.Content, "Pricing")
	assert.Equal(t, "Great support", r.Likes)
	assert.Equal(t, "Pricing", r.Dislikes)
	assert.Equal(t, "Great support", r.Title)
}

func TestParsePasteMultipleBlocks(t *testing.T) {
	text := `4.5 out of 5
Fast dashboards for the whole team
Jane Roe - VP Sales, Globex Corp
Pros: Dashboards load quickly and sharing is easy.
Cons: Export options are limited.

3 stars
Decent but pricey
Sam Lee, Analyst at Initech
We use it weekly for reporting and it mostly does the job.`

	reviews := ParsePaste(text)

	require.Len(t, reviews, 2)

	assert.Equal(t, 4.5, reviews[0].Rating)
	assert.Equal(t, "Jane Roe", reviews[0].ReviewerName)
	assert.Equal(t, "VP Sales", reviews[0].JobTitle)
	assert.Equal(t, "Globex Corp", reviews[0].Company)
	assert.Equal(t, "Fast dashboards for the whole team", reviews[0].Title)
	assert.Equal(t, "Dashboards load quickly and sharing is easy.\n\nExport options are limited.", reviews[0].Content)

	assert.Equal(t, 3.0, reviews[1].Rating)
	assert.Equal(t, "Sam Lee", reviews[1].ReviewerName)
	assert.Equal(t, "Initech", reviews[1].Company)
	assert.Equal(t, "Decent but pricey", reviews[1].Title)
	assert.Contains(t, reviews[1].Content, "We use it weekly")
	assert.NotContains(t, reviews[1].Content, "3 stars")
}

func TestParsePasteBlankLineSplit(t *testing.T) {
	text := "The onboarding team was patient and thorough with us.\n\n\n\nReporting finally matches what finance needs every month."

	reviews := ParsePaste(text)

	require.Len(t, reviews, 2)
	assert.Equal(t, "Anonymous", reviews[0].ReviewerName)
	assert.Equal(t, "Not specified", reviews[0].Company)
	assert.Zero(t, reviews[0].Rating)
	assert.Contains(t, reviews[1].Content, "Reporting finally")
}

func TestParsePasteWholeInputFallback(t *testing.T) {
	// too short to count as a block, long enough to keep
	text := "Nice tool, works fine!!"

	reviews := ParsePaste(text)

	require.Len(t, reviews, 1)
	assert.Equal(t, "Anonymous", reviews[0].ReviewerName)
	assert.Equal(t, "Not specified", reviews[0].Company)
	assert.Equal(t, text, reviews[0].Title)
	assert.Equal(t, text, reviews[0].Content)
}

func TestParsePasteUnstructuredBlock(t *testing.T) {
	text := "Short but useful note\nabout the product."

	reviews := ParsePaste(text)

	require.Len(t, reviews, 1)
	assert.Equal(t, "Short but useful note", reviews[0].Title)
	assert.Equal(t, text, reviews[0].Content)
}

func TestParsePasteDiscardsEmptyAndTrivialInput(t *testing.T) {
	assert.Empty(t, ParsePaste(""))
	assert.Empty(t, ParsePaste("   \n\n  "))
	assert.Empty(t, ParsePaste("too short"))
}

func TestParsePasteNeverPanics(t *testing.T) {
	inputs := []string{
		"5/5",
		"5/5\n\n\n\n",
		"Overall Rating\nOverall Rating\nOverall Rating",
		strings.Repeat("What do you like most:", 20),
		"Pros:\nCons:\n" + strings.Repeat("x", 40),
		"\x00\xff\xfe garbage 9/5 999 stars",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParsePaste(in) }, in)
	}
}

func TestExtractRatingIgnoresDates(t *testing.T) {
	_, ok := extractRating("Reviewed 1/5/2024 by someone")
	assert.False(t, ok)

	v, ok := extractRating("Overall Rating: 4.0 / 5")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, ok = extractRating("rated 7/5")
	assert.False(t, ok)
}

func TestParseCSV(t *testing.T) {
	text := "Reviewer Name,Company,Job Title,Rating,Review Title,Review Text,Review Date\n" +
		"Jane Roe,Globex,VP Sales,4.5 stars,Solid,\"Great dashboards, easy sharing\",2024-02-01\n" +
		",,,,,\"Multi\nline review body\",\n"

	reviews := ParseCSV(text)

	require.Len(t, reviews, 2)
	assert.Equal(t, "Jane Roe", reviews[0].ReviewerName)
	assert.Equal(t, "Globex", reviews[0].Company)
	assert.Equal(t, "VP Sales", reviews[0].JobTitle)
	assert.Equal(t, 4.5, reviews[0].Rating)
	assert.Equal(t, "Solid", reviews[0].Title)
	assert.Equal(t, "Great dashboards, easy sharing", reviews[0].Content)
	assert.Equal(t, "2024-02-01", reviews[0].Date)

	assert.Equal(t, "Anonymous", reviews[1].ReviewerName)
	assert.Equal(t, "Not specified", reviews[1].Company)
	assert.Equal(t, "Multi", reviews[1].Title)
	assert.Zero(t, reviews[1].Rating)
}

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	// spreadsheet exports often start with a UTF-8 BOM; the first header must still match exactly
	reviews := ParseCSV("\uFEFFTitle,Name,Rating,Review\nFast answers,Jane Roe,5,Support answers within the hour\n")

	require.Len(t, reviews, 1)
	assert.Equal(t, "Fast answers", reviews[0].Title)
	assert.Empty(t, reviews[0].JobTitle)
	assert.Equal(t, "Jane Roe", reviews[0].ReviewerName)
	assert.Equal(t, 5.0, reviews[0].Rating)
	assert.Equal(t, "Support answers within the hour", reviews[0].Content)
}

func TestParseCSVSkipsRowMissingContent(t *testing.T) {
	reviews := ParseCSV("Name,Company,Rating,Review\nJane Roe,Acme,5\n")
	assert.Empty(t, reviews)
}

func TestParseCSVWithoutContentHeaderUsesLastColumn(t *testing.T) {
	reviews := ParseCSV("Name,Company,Feedback\nJane Roe,Acme,Works well for our support team\n")
	require.Len(t, reviews, 1)
	assert.Equal(t, "Works well for our support team", reviews[0].Content)
}

func TestParseCSVMalformedInput(t *testing.T) {
	assert.Empty(t, ParseCSV(""))
	assert.Empty(t, ParseCSV("Name,Review\n"))
	assert.Empty(t, ParseCSV("Name,Review\nonly-one-column\n"))
}

func TestParserDispatch(t *testing.T) {
	p := NewParser(DefaultDefaults())
	assert.Len(t, p.Parse("CSV", "Name,Review\nJane,Great product overall\n"), 1)
	assert.Len(t, p.Parse("text", "5/5\nJohn Doe, CTO at Acme\nWhat do you like most: Great support"), 1)
}
