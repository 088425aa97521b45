package importer

import (
	"encoding/csv"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"evidence-hub/domain"
)

const (
	minBlockLength    = 30
	minContentLength  = 10
	minFallbackLength = 20
	minCSVContent     = 5
	maxTitleLine      = 120
	fallbackTitleLen  = 80
)

var (
	blockStart = regexp.MustCompile(`(?im)Overall Rating|(?:^|\n)[ \t]*\d(?:\.\d)?[ \t]*(?:/[ \t]*5|out of 5|stars?)`)
	blankRun   = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

	ratingExpr = regexp.MustCompile(`(?i)(?:^|[^\d./])(\d(?:\.\d)?)\s*(?:/\s*5(?:[^\d/]|$)|out of 5\b|stars?\b)`)
	ratingLine = regexp.MustCompile(`(?i)^(?:overall rating:?\s*)?(?:\d(?:\.\d)?\s*(?:/\s*5|out of 5|stars?))?\s*$`)
	ratingText = regexp.MustCompile(`(?i)(?:overall rating:?\s*)?\d(?:\.\d)?\s*(?:/\s*5|out of 5|stars?)`)

	identityLine = regexp.MustCompile(`^(?:(?i:by)\s+|(?i:reviewer):\s*)?([A-Z][a-zA-Z'’]+(?:[ \t]+[A-Z][a-zA-Z'’.]*)*)[ \t]*[,\-–][ \t]*(.+?)(?:[ \t]+at[ \t]+|[ \t]*,[ \t]*)([A-Za-z0-9][\w &.\-]*?)[ \t]*$`)

	dateExpr = regexp.MustCompile(`(?i)(?:reviewed|posted|date)?:?[ \t]*([A-Za-z]{3,9}\.?[ \t]+\d{1,2},?[ \t]+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)

	leadingNumber = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
)

type sectionKind int

const (
	sectionLikes sectionKind = iota
	sectionDislikes
	sectionProblems
	sectionRecommendations
)

var sectionHeaders = []struct {
	kind sectionKind
	re   *regexp.Regexp
}{
	{sectionLikes, regexp.MustCompile(`(?i)what do you like (?:most|best)[^?:\n]*[?:]?|what i like[^:\n]*:|\b(?:likes?|pros?)\s*:`)},
	{sectionDislikes, regexp.MustCompile(`(?i)what (?:do you )?(?:dislike|needs? improvement|could be improved)[^?:\n]*[?:]?|\b(?:dislikes?|cons?)\s*:`)},
	{sectionProblems, regexp.MustCompile(`(?i)what problems? (?:is|are|does|do)[^?:\n]*[?:]?`)},
	{sectionRecommendations, regexp.MustCompile(`(?i)recommendations? to others[^?:\n]*[?:]?`)},
}

// Parser turns pasted review pages and CSV exports into parsed reviews.
// Extraction is heuristic: every extractor reports whether it found
// anything and the block degrades to its raw text when they do not.
type Parser struct {
	defaults Defaults
}

func NewParser(defaults Defaults) *Parser {
	return &Parser{defaults: defaults}
}

var defaultParser = NewParser(DefaultDefaults())

// ParsePaste parses text with the default placeholders.
func ParsePaste(text string) []domain.ParsedReview {
	return defaultParser.ParsePaste(text)
}

// ParseCSV parses CSV text with the default placeholders.
func ParseCSV(text string) []domain.ParsedReview {
	return defaultParser.ParseCSV(text)
}

// Parse dispatches on format: "csv" or anything else for paste mode.
func (p *Parser) Parse(format, text string) []domain.ParsedReview {
	if strings.EqualFold(format, "csv") {
		return p.ParseCSV(text)
	}
	return p.ParsePaste(text)
}

func (p *Parser) ParsePaste(text string) []domain.ParsedReview {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	reviews := []domain.ParsedReview{}

	for _, block := range splitBlocks(text) {
		if r, ok := p.parseBlock(block); ok {
			reviews = append(reviews, r)
		}
	}

	trimmed := strings.TrimSpace(text)
	if len(reviews) == 0 && utf8.RuneCountInString(trimmed) > minFallbackLength {
		reviews = append(reviews, domain.ParsedReview{
			ReviewerName: p.defaults.CustomerName,
			Company:      p.defaults.Company,
			Title:        firstRunes(firstLine(trimmed), fallbackTitleLen),
			Content:      trimmed,
		})
	}
	return reviews
}

func splitBlocks(text string) []string {
	blocks := cutAt(text, blockStart.FindAllStringIndex(text, -1))
	if len(blocks) <= 1 {
		if alt := keepLong(blankRun.Split(text, -1)); len(alt) > 1 {
			return alt
		}
	}
	return blocks
}

// cutAt splits text at the start of every match, keeping the match in the
// block it begins.
func cutAt(text string, locs [][]int) []string {
	var parts []string
	start := 0
	for _, loc := range locs {
		if loc[0] > start {
			parts = append(parts, text[start:loc[0]])
			start = loc[0]
		}
	}
	parts = append(parts, text[start:])
	return keepLong(parts)
}

func keepLong(parts []string) []string {
	out := []string{}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > minBlockLength {
			out = append(out, part)
		}
	}
	return out
}

func (p *Parser) parseBlock(block string) (domain.ParsedReview, bool) {
	r := domain.ParsedReview{
		ReviewerName: p.defaults.CustomerName,
		Company:      p.defaults.Company,
	}

	if rating, ok := extractRating(block); ok {
		r.Rating = rating
	}
	id, idFound := extractIdentity(block)
	if idFound {
		r.ReviewerName = id.name
		r.JobTitle = id.jobTitle
		r.Company = id.company
	}
	date, dateFound := extractDate(block)
	if dateFound {
		r.Date = date
	}

	sections, ok := extractSections(block)
	if ok {
		r.Likes = sections[sectionLikes]
		r.Dislikes = sections[sectionDislikes]
		r.ProblemsSolving = sections[sectionProblems]
		r.Recommendations = sections[sectionRecommendations]
		r.Content = joinSections(sections)
	} else {
		r.Content = strings.TrimSpace(ratingText.ReplaceAllString(block, ""))
	}
	if utf8.RuneCountInString(r.Content) < minContentLength {
		return domain.ParsedReview{}, false
	}

	if title, ok := extractTitle(block, id.line, date); ok {
		r.Title = title
	} else {
		r.Title = firstRunes(firstLine(r.Content), fallbackTitleLen)
	}
	return r, true
}

func extractRating(block string) (float64, bool) {
	m := ratingExpr.FindStringSubmatch(block)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || v > 5 {
		return 0, false
	}
	return v, true
}

type identity struct {
	name, jobTitle, company string
	line                    string
}

func extractIdentity(block string) (identity, bool) {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		m := identityLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return identity{
			name:     strings.TrimSpace(m[1]),
			jobTitle: strings.TrimSpace(m[2]),
			company:  strings.TrimSpace(m[3]),
			line:     line,
		}, true
	}
	return identity{}, false
}

func extractDate(block string) (string, bool) {
	m := dateExpr.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

type sectionSpan struct {
	kind       sectionKind
	start, end int
}

func extractSections(block string) (map[sectionKind]string, bool) {
	var spans []sectionSpan
	for _, h := range sectionHeaders {
		for _, loc := range h.re.FindAllStringIndex(block, -1) {
			spans = append(spans, sectionSpan{kind: h.kind, start: loc[0], end: loc[1]})
		}
	}
	if len(spans) == 0 {
		return nil, false
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	headers := spans[:0]
	for _, s := range spans {
		if len(headers) > 0 && s.start < headers[len(headers)-1].end {
			continue
		}
		headers = append(headers, s)
	}

	out := map[sectionKind]string{}
	for i, h := range headers {
		end := len(block)
		if i+1 < len(headers) {
			end = headers[i+1].start
		}
		body := strings.TrimSpace(strings.TrimLeft(block[h.end:end], " \t:*"))
		if body == "" {
			continue
		}
		if _, seen := out[h.kind]; !seen {
			out[h.kind] = body
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func joinSections(sections map[sectionKind]string) string {
	var parts []string
	for _, kind := range []sectionKind{sectionLikes, sectionDislikes, sectionProblems, sectionRecommendations} {
		if s := sections[kind]; s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func isSectionHeader(line string) bool {
	for _, h := range sectionHeaders {
		if loc := h.re.FindStringIndex(line); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

func extractTitle(block, reviewerLine, date string) (string, bool) {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case ratingLine.MatchString(line):
			continue
		case reviewerLine != "" && line == reviewerLine:
			continue
		case date != "" && strings.Contains(line, date) && len(line) <= len(date)+15:
			continue
		case isSectionHeader(line):
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleLine {
			return "", false
		}
		title := strings.TrimSpace(strings.Trim(line, "*#\"“” "))
		if title == "" {
			continue
		}
		return title, true
	}
	return "", false
}

// ParseCSV reads a CSV export with a header row. Rows without content are skipped.
func (p *Parser) ParseCSV(text string) []domain.ParsedReview {
	reviews := []domain.ParsedReview{}

	cr := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\uFEFF")))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return reviews
	}
	cols := mapColumns(header)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if r, ok := p.parseRow(row, cols); ok {
			reviews = append(reviews, r)
		}
	}
	return reviews
}

type csvColumns struct {
	name, company, job, rating, title, content, date int
}

func mapColumns(header []string) csvColumns {
	cols := csvColumns{-1, -1, -1, -1, -1, -1, -1}
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, h := range lower {
		switch {
		case h == "title" || strings.Contains(h, "review title") || strings.Contains(h, "headline"):
			setOnce(&cols.title, i)
		}
	}
	for i, h := range lower {
		if i == cols.title {
			continue
		}
		isReview := strings.Contains(h, "review") || strings.Contains(h, "content") || strings.Contains(h, "text")
		switch {
		case strings.Contains(h, "company"):
			setOnce(&cols.company, i)
		case strings.Contains(h, "name") || h == "reviewer" || h == "author":
			setOnce(&cols.name, i)
		case strings.Contains(h, "job") || (strings.Contains(h, "title") && !isReview):
			setOnce(&cols.job, i)
		case strings.Contains(h, "rating") || strings.Contains(h, "score"):
			setOnce(&cols.rating, i)
		case strings.Contains(h, "date"):
			setOnce(&cols.date, i)
		case isReview:
			setOnce(&cols.content, i)
		}
	}
	if cols.content < 0 && len(header) > 0 {
		cols.content = len(header) - 1
	}
	return cols
}

func setOnce(dst *int, i int) {
	if *dst < 0 {
		*dst = i
	}
}

func (p *Parser) parseRow(row []string, cols csvColumns) (domain.ParsedReview, bool) {
	if len(row) < 2 {
		return domain.ParsedReview{}, false
	}
	content := cell(row, cols.content)
	if utf8.RuneCountInString(content) < minCSVContent {
		return domain.ParsedReview{}, false
	}

	r := domain.ParsedReview{
		ReviewerName: orDefault(cell(row, cols.name), p.defaults.CustomerName),
		Company:      orDefault(cell(row, cols.company), p.defaults.Company),
		JobTitle:     cell(row, cols.job),
		Title:        cell(row, cols.title),
		Content:      content,
		Date:         cell(row, cols.date),
	}
	if m := leadingNumber.FindStringSubmatch(cell(row, cols.rating)); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 5 {
			r.Rating = v
		}
	}
	if r.Title == "" {
		r.Title = firstRunes(firstLine(content), fallbackTitleLen)
	}
	return r, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
