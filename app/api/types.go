package api

import (
	"context"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/tasks"
)

type SchedulerInterface interface {
	SubmitURL(rawURL string) error
	RunCycle(ctx context.Context) int
	ExtractContent(ctx context.Context, postID string) (*feed.Article, error)
}

var _ SchedulerInterface = (*tasks.Scheduler)(nil)

type GeneratorInterface interface {
	Run(channel feed.Metadata, items []feed.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)
