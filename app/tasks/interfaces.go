package tasks

import (
	"context"

	"github.com/lysyi3m/rss-reader/app/feed"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage the poll loop and the add-feed queue.
// Example usage:
//
//	scheduler := NewScheduler(store, fetcher, parser, validator, contentExtractor, ids, interval, workers)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.SubmitURL("https://example.com/feed.xml")
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

type FeedFetcher interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

type FeedParser interface {
	Run(data []byte) (*feed.Metadata, []feed.Item, error)
}

type FeedValidator interface {
	Run(url string, existingURLs []string) error
}

type ArticleExtractor interface {
	Run(data []byte, pageURL string) (*feed.Article, error)
}
