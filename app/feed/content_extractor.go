package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-shiori/go-readability"
)

type Article struct {
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Content     string `json:"content"`
	TextContent string `json:"text_content"`
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte, pageURL string) (*Article, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	var base *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL: %w", err)
		}
		base = parsed
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(article.Content))

	return &Article{
		Title:       article.Title,
		Excerpt:     article.Excerpt,
		Content:     article.Content,
		TextContent: article.TextContent,
	}, nil
}
