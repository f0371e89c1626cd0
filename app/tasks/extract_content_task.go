package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
)

// ExtractContentTask fetches the original article of a post and runs it
// through readability for the preview pane.
type ExtractContentTask struct {
	Task
	PostID           string
	Article          *feed.Article
	store            *state.Store
	fetcher          FeedFetcher
	contentExtractor ArticleExtractor
}

func NewExtractContentTask(postID string, store *state.Store, fetcher FeedFetcher, contentExtractor ArticleExtractor) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, ""),
		PostID:           postID,
		store:            store,
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	post, ok := t.store.Post(t.PostID)
	if !ok {
		return fmt.Errorf("post %s not found", t.PostID)
	}
	if post.Link == "" {
		return fmt.Errorf("post has no link")
	}
	t.FeedURL = post.Link

	data, err := t.fetcher.Run(ctx, post.Link)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	article, err := t.contentExtractor.Run(data, post.Link)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}
	t.Article = article

	slog.Info("Task completed",
		"type", t.GetType(),
		"post_id", post.ID,
		"url", post.Link,
		"duration", t.GetDuration(),
		"content_length", len(article.Content))

	return nil
}
