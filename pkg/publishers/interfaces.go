package publishers

import "context"

// Publisher creates a durable artifact for one processed document at a
// destination (Notion page, digest file, email, queue message) and
// returns a receipt identifying what was created.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) (string, error)
}
