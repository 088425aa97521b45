package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"evidence-hub/domain"
)

const remoteTitleLen = 100

// SourceDefaults are the placeholders used for one review source.
type SourceDefaults struct {
	Label         string
	Email         string
	FallbackTitle string
}

// Defaults carries every literal the pipeline writes when a source leaves a
// field out.
type Defaults struct {
	CustomerName string
	Company      string
	Product      domain.ProductType
	Sources      map[domain.IntegrationType]SourceDefaults
}

func DefaultDefaults() Defaults {
	return Defaults{
		CustomerName: "Anonymous",
		Company:      "Not specified",
		Product:      domain.ProductPlatform,
		Sources: map[domain.IntegrationType]SourceDefaults{
			domain.IntegrationG2: {
				Label:         "G2",
				Email:         "imported@g2.com",
				FallbackTitle: "G2 Review",
			},
			domain.IntegrationCapterra: {
				Label:         "Capterra",
				Email:         "imported@capterra.com",
				FallbackTitle: "Capterra Review",
			},
			domain.IntegrationGartner: {
				Label:         "Gartner Peer Insights",
				Email:         "imported@gartner.com",
				FallbackTitle: "Gartner Review",
			},
		},
	}
}

// Source returns the defaults for a source, synthesizing any that are missing.
func (d Defaults) Source(source domain.IntegrationType) SourceDefaults {
	sd := d.Sources[source]
	if sd.Label == "" {
		sd.Label = strings.ToUpper(string(source))
	}
	if sd.Email == "" {
		sd.Email = fmt.Sprintf("imported@%s.com", source)
	}
	if sd.FallbackTitle == "" {
		sd.FallbackTitle = sd.Label + " Review"
	}
	return sd
}

// Normalizer maps source reviews onto pending Evidence records.
type Normalizer struct {
	defaults Defaults
	now      func() time.Time
}

func NewNormalizer(defaults Defaults) *Normalizer {
	if defaults.Product == "" {
		defaults.Product = domain.ProductPlatform
	}
	return &Normalizer{defaults: defaults, now: time.Now}
}

func (n *Normalizer) Defaults() Defaults { return n.defaults }

// fields is the source-independent view every variant is adapted into.
type fields struct {
	name, company, jobTitle string
	title, body             string
	rating                  float64
	url, date               string
	review                  domain.ReviewData
}

func (n *Normalizer) Normalize(integration *domain.Integration, review domain.SourceReview) (*domain.Evidence, error) {
	var f fields
	switch r := review.(type) {
	case domain.ParsedReview:
		f = fromParsed(r)
	case domain.G2Review:
		f = fromG2(r)
	case domain.CapterraReview:
		f = fromCapterra(r)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedSource, review)
	}

	f.body = strings.TrimSpace(f.body)
	if f.body == "" {
		return nil, fmt.Errorf("%w: review has no content", domain.ErrInvalidInput)
	}

	source := integration.IntegrationType
	sd := n.defaults.Source(source)
	externalID := ExternalID(source, review)
	importedAt := n.now().UTC()

	title := strings.TrimSpace(f.title)
	if title == "" {
		title = firstRunes(firstLine(f.body), remoteTitleLen)
	}
	if title == "" {
		title = sd.FallbackTitle
	}

	e := &domain.Evidence{
		CustomerName:      orDefault(f.name, n.defaults.CustomerName),
		Company:           orDefault(f.company, n.defaults.Company),
		Email:             sd.Email,
		JobTitle:          domain.StringPtr(strings.TrimSpace(f.jobTitle)),
		EvidenceType:      domain.EvidenceReview,
		Product:           n.defaults.Product,
		Title:             title,
		Content:           f.body,
		Status:            domain.StatusPending,
		ReviewData:        datatypes.NewJSONType(f.review),
		ReviewDate:        domain.StringPtr(strings.TrimSpace(f.date)),
		IntegrationSource: domain.StringPtr(string(source)),
		ExternalID:        &externalID,
		ExternalURL:       domain.StringPtr(strings.TrimSpace(f.url)),
		ImportedAt:        &importedAt,
		CreatedBy:         domain.StringPtr(integration.Settings().CreatedBy),
	}
	// ratings outside 1..5, including a missing 0, are not stored and get no summary line
	if f.rating > 0 && f.rating <= 5 {
		rating := f.rating
		e.Rating = &rating
		e.Results = domain.StringPtr(ResultsSummary(rating, sd.Label))
	}
	return e, nil
}

// ResultsSummary renders the rating line shown on imported evidence.
func ResultsSummary(rating float64, label string) string {
	return fmt.Sprintf("★ %s/5 stars on %s", strconv.FormatFloat(rating, 'f', -1, 64), label)
}

func fromParsed(r domain.ParsedReview) fields {
	return fields{
		name:     r.ReviewerName,
		company:  r.Company,
		jobTitle: r.JobTitle,
		title:    r.Title,
		body:     r.Content,
		rating:   r.Rating,
		date:     r.Date,
		review: domain.ReviewData{
			Love:            r.Likes,
			Hate:            r.Dislikes,
			ProblemsSolving: r.ProblemsSolving,
			Recommendations: r.Recommendations,
		},
	}
}

func fromG2(r domain.G2Review) fields {
	return fields{
		name:     r.User.Name,
		company:  r.User.CompanyName,
		jobTitle: r.User.Title,
		title:    r.Title,
		body:     r.Text,
		rating:   r.StarRating,
		url:      r.URL,
		date:     r.CreatedAt,
	}
}

func fromCapterra(r domain.CapterraReview) fields {
	return fields{
		name:     r.Reviewer.Name,
		company:  r.Reviewer.Company,
		jobTitle: r.Reviewer.Role,
		title:    r.Title,
		body:     r.Review,
		rating:   r.Rating,
		url:      r.URL,
		date:     r.Date,
	}
}
