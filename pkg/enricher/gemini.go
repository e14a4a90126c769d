package enricher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paperboy-hq/paperboy/pkg/httpclient"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	client   httpclient.Client
	endpoint string
	model    string
	apiKey   string
}

func NewGeminiClient(client httpclient.Client, endpoint, model, apiKey string) *GeminiClient {
	return &GeminiClient{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the raw candidate text. An empty
// candidate list yields an empty string, not an error, so callers can fall
// back to a degraded summary.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, url.QueryEscape(g.apiKey))
	resp, err := g.client.Post(ctx, reqURL, map[string]string{"Content-Type": "application/json"}, body)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	var b strings.Builder
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
		break
	}
	return b.String(), nil
}

const geminiSnippetLimit = 256

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > geminiSnippetLimit {
		return s[:geminiSnippetLimit] + "..."
	}
	return s
}
