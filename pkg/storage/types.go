package storage

import "time"

// Interception sources.
const (
	SourceNavigation = "navigation"
	SourceContent    = "content"
	SourceMessage    = "message"
)

// Interception records one page that was redirected or overlaid.
type Interception struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"` // navigation | content | message
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	ShowName   string    `json:"show_name"`
}

// ShowStats aggregates interceptions for one watched show.
type ShowStats struct {
	ShowName      string `json:"show_name"`
	Navigation    int    `json:"navigation"`
	Content       int    `json:"content"`
	Message       int    `json:"message"`
	DistinctSites int    `json:"distinct_sites"`
}
