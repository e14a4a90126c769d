package sources

import "strings"

const snippetLimit = 256

func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLimit {
		return s[:snippetLimit] + "..."
	}
	return s
}
