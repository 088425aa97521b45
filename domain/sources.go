package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RemoteID accepts review ids that APIs send either as JSON strings or numbers.
type RemoteID string

func (id *RemoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RemoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RemoteID(n.String())
	return nil
}

// SourceReview is one review as delivered by a source, before it is mapped
// onto Evidence. Each source has its own variant.
type SourceReview interface {
	// NativeID is the source's own review id, empty when the source has none.
	NativeID() string
	// CompositeKey identifies a review without a native id.
	CompositeKey() string
	sourceReview()
}

// ParsedReview is produced by the paste/CSV parser.
type ParsedReview struct {
	ReviewerName    string  `json:"reviewer_name"`
	Company         string  `json:"company"`
	JobTitle        string  `json:"job_title,omitempty"`
	Rating          float64 `json:"rating"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Date            string  `json:"date,omitempty"`
	Likes           string  `json:"likes,omitempty"`
	Dislikes        string  `json:"dislikes,omitempty"`
	ProblemsSolving string  `json:"problems_solving,omitempty"`
	Recommendations string  `json:"recommendations,omitempty"`
}

func (ParsedReview) NativeID() string { return "" }

func (r ParsedReview) CompositeKey() string {
	return strings.Join([]string{r.ReviewerName, r.Title, r.Date}, "_")
}

func (ParsedReview) sourceReview() {}

type G2User struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Title       string `json:"title,omitempty"`
}

// G2Review is one entry of the G2 reviews listing.
type G2Review struct {
	ID         RemoteID `json:"id"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	StarRating float64  `json:"star_rating"`
	User       G2User   `json:"user"`
	URL        string   `json:"url"`
	CreatedAt  string   `json:"created_at"`
}

func (r G2Review) NativeID() string { return string(r.ID) }

func (r G2Review) CompositeKey() string {
	return strings.Join([]string{r.User.Name, r.Title, r.CreatedAt}, "_")
}

func (G2Review) sourceReview() {}

// G2Product is the resolved identity of a G2 product slug.
type G2Product struct {
	UUID string
	Slug string
	Name string
}

type CapterraReviewer struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

type CapterraReview struct {
	ID       RemoteID         `json:"id"`
	Title    string           `json:"title"`
	Review   string           `json:"review"`
	Rating   float64          `json:"rating"`
	Reviewer CapterraReviewer `json:"reviewer"`
	URL      string           `json:"url"`
	Date     string           `json:"date"`
}

func (r CapterraReview) NativeID() string { return string(r.ID) }

func (r CapterraReview) CompositeKey() string {
	return strings.Join([]string{r.Reviewer.Name, r.Title, r.Date}, "_")
}

func (CapterraReview) sourceReview() {}
