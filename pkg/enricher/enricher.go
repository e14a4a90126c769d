package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paperboy-hq/paperboy/internal/domain"
	"github.com/paperboy-hq/paperboy/internal/logger"
)

// Generator produces free-form text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Excerpter pulls a short description from a document's web page, used
// when a feed entry ships no body of its own.
type Excerpter interface {
	Excerpt(ctx context.Context, pageURL string) (string, error)
}

// Service turns raw documents into summaries via a text generator.
type Service struct {
	generator Generator
	excerpter Excerpter
	model     string
	log       logger.Logger
}

func New(generator Generator, excerpter Excerpter, model string, log logger.Logger) *Service {
	return &Service{
		generator: generator,
		excerpter: excerpter,
		model:     model,
		log:       logger.Ensure(log),
	}
}

type summaryPayload struct {
	Synopsis  string   `json:"synopsis"`
	KeyPoints []string `json:"key_points"`
}

// Enrich asks the generator for a structured summary of the document.
// A transport or API failure is returned to the caller. A response that
// arrives but cannot be parsed yields a degraded summary instead.
func (s *Service) Enrich(ctx context.Context, doc domain.Document) (domain.Summary, error) {
	content := strings.TrimSpace(doc.Content)
	if content == "" && s.excerpter != nil && doc.URL != "" {
		excerpt, err := s.excerpter.Excerpt(ctx, doc.URL)
		if err != nil {
			s.log.WarnObj("page excerpt failed", "url", doc.URL)
		} else {
			content = excerpt
		}
	}

	raw, err := s.generator.Generate(ctx, buildPrompt(doc, content))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("generate summary: %w", err)
	}

	payload, ok := parsePayload(raw)
	if !ok || strings.TrimSpace(payload.Synopsis) == "" {
		s.log.WarnObj("summary response not parseable, using fallback", "document_id", doc.ID)
		return degradedSummary(doc, content, s.model), nil
	}

	return domain.Summary{
		Synopsis:  strings.TrimSpace(payload.Synopsis),
		KeyPoints: trimPoints(payload.KeyPoints),
		Model:     s.model,
	}, nil
}

func buildPrompt(doc domain.Document, content string) string {
	var b strings.Builder
	b.WriteString("Summarize the following document for a technical reader.\n")
	b.WriteString("Respond with a single JSON object only, no surrounding text, shaped as:\n")
	b.WriteString(`{"synopsis": "two or three sentences", "key_points": ["point", "point"]}` + "\n\n")
	b.WriteString("Title: " + doc.Title + "\n")
	if len(doc.Authors) > 0 {
		b.WriteString("Authors: " + strings.Join(doc.Authors, ", ") + "\n")
	}
	if content != "" {
		b.WriteString("\nContent:\n" + content + "\n")
	} else {
		b.WriteString("\nNo content is available, summarize from the title alone.\n")
	}
	return b.String()
}

func parsePayload(raw string) (summaryPayload, bool) {
	raw = stripFences(raw)
	if raw == "" {
		return summaryPayload{}, false
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return summaryPayload{}, false
	}
	return payload, true
}

// stripFences removes a surrounding markdown code fence, which models
// emit even when asked for bare JSON.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}

	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func trimPoints(points []string) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const fallbackExcerptLimit = 400

func degradedSummary(doc domain.Document, content, model string) domain.Summary {
	synopsis := strings.TrimSpace(content)
	if synopsis == "" {
		synopsis = doc.Title
	}
	if len(synopsis) > fallbackExcerptLimit {
		synopsis = synopsis[:fallbackExcerptLimit] + "..."
	}
	return domain.Summary{
		Synopsis: synopsis,
		Model:    model,
		Degraded: true,
	}
}
