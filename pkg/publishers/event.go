package publishers

import (
	"time"

	"github.com/paperboy-hq/paperboy/internal/domain"
)

// Event is the payload handed to every publisher for one processed
// document.
type Event struct {
	SourceID    string          `json:"source_id"`
	SourceName  string          `json:"source_name"`
	Document    domain.Document `json:"document"`
	Summary     domain.Summary  `json:"summary"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// Receipt identifies the artifact one publisher created for an event.
type Receipt struct {
	PublisherID string `json:"publisher_id"`
	Type        string `json:"type"`
	Ref         string `json:"ref"`
}

// NewEvent constructs an Event for the given document + summary.
func NewEvent(doc domain.Document, summary domain.Summary) Event {
	return Event{
		SourceID:    doc.SourceID,
		SourceName:  doc.SourceName,
		Document:    doc,
		Summary:     summary,
		ProcessedAt: time.Now().UTC(),
	}
}
