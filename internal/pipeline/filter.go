package pipeline

import "github.com/paperboy-hq/paperboy/internal/domain"

// filterNew returns the subsequence of docs whose identifier has not
// been processed yet, preserving input order. Documents with an empty
// identifier are dropped; the store's membership test makes this
// proportional to len(docs).
func filterNew(docs []domain.Document, seen Membership) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			continue
		}
		if seen.Seen(doc.ID) {
			continue
		}
		out = append(out, doc)
	}
	return out
}
