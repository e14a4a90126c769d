package publishers

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// pageCreator is the subset of the Notion API client used here.
type pageCreator interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// notionPublisher creates one page per processed document in a Notion
// database.
type notionPublisher struct {
	id         string
	typ        string
	databaseID string
	pages      pageCreator
	log        Logger
}

func newNotionPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Notion == nil {
		return nil, fmt.Errorf("publisher %q missing notion configuration", cfg.ID)
	}

	client := notionapi.NewClient(notionapi.Token(cfg.Notion.Token))

	return &notionPublisher{
		id:         cfg.ID,
		typ:        TypeNotion,
		databaseID: cfg.Notion.DatabaseID,
		pages:      client.Page,
		log:        ensureLogger(log),
	}, nil
}

func (n *notionPublisher) ID() string   { return n.id }
func (n *notionPublisher) Type() string { return n.typ }

// Publish creates the page and returns its id as the receipt.
func (n *notionPublisher) Publish(ctx context.Context, evt Event) (string, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(n.databaseID),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: []notionapi.RichText{richText(evt.Document.Title)},
			},
			"URL": notionapi.URLProperty{
				Type: notionapi.PropertyTypeURL,
				URL:  evt.Document.URL,
			},
		},
		Children: buildPageBlocks(evt),
	}

	page, err := n.pages.Create(ctx, req)
	if err != nil {
		n.log.ErrorObj("notion page create failed", "publisher_notion_error", map[string]any{
			"publisher_id": n.id,
			"document_id":  evt.Document.ID,
			"error":        err.Error(),
		})
		return "", fmt.Errorf("create notion page: %w", err)
	}

	n.log.DebugObj("notion page created", "publisher_notion_delivery", map[string]any{
		"publisher_id": n.id,
		"page_id":      string(page.ID),
	})
	return string(page.ID), nil
}

func buildPageBlocks(evt Event) []notionapi.Block {
	blocks := []notionapi.Block{
		paragraphBlock(evt.Summary.Synopsis),
	}
	for _, point := range evt.Summary.KeyPoints {
		blocks = append(blocks, bulletBlock(point))
	}
	if evt.SourceName != "" {
		blocks = append(blocks, paragraphBlock("Source: "+evt.SourceName))
	}
	return blocks
}

func paragraphBlock(text string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{richText(text)},
		},
	}
}

func bulletBlock(text string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{
			RichText: []notionapi.RichText{richText(text)},
		},
	}
}

// Notion caps rich text content at 2000 characters per block.
func richText(content string) notionapi.RichText {
	const maxLen = 2000
	if len(content) > maxLen {
		content = content[:maxLen]
	}
	return notionapi.RichText{
		Text: &notionapi.Text{Content: content},
	}
}
