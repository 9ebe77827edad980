package domain

import "time"

// SourceType enumerates knowledge-base result origins.
type SourceType string

const (
	SourceKnowledgeBase SourceType = "knowledge_base"
	SourceDocumentation SourceType = "documentation"
	SourceCommunity     SourceType = "community"
	SourceVendor        SourceType = "vendor"
)

// SourceTypes lists the known result origins.
var SourceTypes = []SourceType{
	SourceKnowledgeBase,
	SourceDocumentation,
	SourceCommunity,
	SourceVendor,
}

// CredibilityLevel buckets source trustworthiness.
type CredibilityLevel string

const (
	CredibilityHigh   CredibilityLevel = "high"
	CredibilityMedium CredibilityLevel = "medium"
	CredibilityLow    CredibilityLevel = "low"
)

// SearchResult is one knowledge-base hit, immutable once received.
type SearchResult struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Snippet           string           `json:"snippet"`
	URL               string           `json:"url"`
	Source            string           `json:"source"`
	SourceType        SourceType       `json:"source_type"`
	CredibilityLevel  CredibilityLevel `json:"credibility_level"`
	CredibilityScore  float64          `json:"credibility_score"`
	RelevanceScore    float64          `json:"relevance_score"`
	RelevanceToTicket *float64         `json:"relevance_to_ticket,omitempty"`
	Date              *time.Time       `json:"date,omitempty"`
	Position          int              `json:"position"`
}

// SearchFilters is the closed filter record applied to a query.
// The upstream client used an open string-keyed map; this keeps the
// dimensions typed and validated at the API boundary.
type SearchFilters struct {
	SourceTypes []SourceType       `json:"source_types,omitempty"`
	Credibility []CredibilityLevel `json:"credibility,omitempty"`
	DateFrom    *time.Time         `json:"date_from,omitempty"`
	DateTo      *time.Time         `json:"date_to,omitempty"`
	MaxResults  int                `json:"max_results,omitempty"`
}

// TicketContext carries ticket fields into contextual search.
type TicketContext struct {
	TicketID    string   `json:"ticket_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ContextInsights is the extraction-endpoint response.
type ContextInsights struct {
	Keywords         []string `json:"keywords"`
	Entities         []string `json:"entities"`
	Sentiment        string   `json:"sentiment"`
	Urgency          string   `json:"urgency"`
	TechnicalLevel   string   `json:"technical_level"`
	SuggestedQueries []string `json:"suggested_queries"`
}

// NeutralInsights is the conservative default returned when extraction fails.
func NeutralInsights() ContextInsights {
	return ContextInsights{
		Keywords:         []string{},
		Entities:         []string{},
		Sentiment:        "neutral",
		Urgency:          "medium",
		TechnicalLevel:   "intermediate",
		SuggestedQueries: []string{},
	}
}

// QueryRecord is one entry of an agent's search history.
type QueryRecord struct {
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	SearchedAt  time.Time `json:"searched_at"`
}
