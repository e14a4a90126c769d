package domain

import "time"

// Domain contains core models shared across the pipeline.

// Document is one unit of content eligible for processing in a run.
// ID must be non-empty and stable across runs for the same logical item
// (an arXiv abs URL, a feed entry link).
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Authors     []string  `json:"authors,omitempty"`
	Content     string    `json:"content,omitempty"`
	SourceID    string    `json:"source_id"`
	SourceName  string    `json:"source_name"`
	PublishedAt time.Time `json:"published_at"`
}

// Summary is the enrichment result for a single document. Degraded is
// set when the model output could not be parsed and a fallback synopsis
// was used instead.
type Summary struct {
	Synopsis  string   `json:"synopsis"`
	KeyPoints []string `json:"key_points,omitempty"`
	Model     string   `json:"model,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// Failure records one item that could not be processed during a run.
type Failure struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// RunReport summarizes one pipeline run. It is derived, never persisted.
type RunReport struct {
	Fetched   int       `json:"fetched"`
	Novel     int       `json:"novel"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}
