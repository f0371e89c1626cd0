package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, NewError(ErrorKindNotFeed, fmt.Errorf("empty document"))
	}

	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, NewError(ErrorKindNotFeed, fmt.Errorf("failed to parse feed: %w", err))
	}

	// Only documents with an RSS channel count as feeds
	if feed.FeedType != "rss" {
		return nil, nil, NewError(ErrorKindNotFeed, fmt.Errorf("unsupported feed type %q", feed.FeedType))
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: strings.TrimSpace(item.Description),
		Content:     item.Content,
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = *item.UpdatedParsed
	}

	normalized.Authors = p.extractAuthors(item)

	return normalized
}

func (p *Parser) extractAuthors(item *gofeed.Item) []string {
	var authors []string

	if len(item.Authors) > 0 {
		for _, author := range item.Authors {
			if author != nil {
				authorStr := p.formatAuthor(author.Name, author.Email)
				if authorStr != "" {
					authors = append(authors, authorStr)
				}
			}
		}
	} else if item.Author != nil {
		authorStr := p.formatAuthor(item.Author.Name, item.Author.Email)
		if authorStr != "" {
			authors = append(authors, authorStr)
		}
	}

	return authors
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}
