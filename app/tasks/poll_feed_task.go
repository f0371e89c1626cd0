package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
)

// PollFeedTask re-fetches one tracked feed and merges the posts whose links
// are not known yet. Its results are dropped when a newer poll cycle started
// while it was in flight.
type PollFeedTask struct {
	Task
	Feed    state.Feed
	epoch   uint64
	current *atomic.Uint64
	store   *state.Store
	fetcher FeedFetcher
	parser  FeedParser
	ids     IDGenerator
	added   int
}

func NewPollFeedTask(tracked state.Feed, epoch uint64, current *atomic.Uint64, store *state.Store, fetcher FeedFetcher, parser FeedParser, ids IDGenerator) *PollFeedTask {
	return &PollFeedTask{
		Task:    NewTask(TaskTypePollFeed, tracked.URL),
		Feed:    tracked,
		epoch:   epoch,
		current: current,
		store:   store,
		fetcher: fetcher,
		parser:  parser,
		ids:     ids,
	}
}

func (t *PollFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetcher.Run(ctx, t.Feed.URL)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to fetch feed: %w", err))
	}

	_, items, err := t.parser.Run(data)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to parse feed: %w", asNotFeed(err)))
	}

	fresh := freshItems(t.store.PostsForChannel(t.Feed.ID), items)
	if len(fresh) == 0 {
		slog.Debug("No new posts", "feed", t.Feed.URL, "total", len(items))
		return nil
	}

	if t.stale() {
		staleMergesDropped.Inc()
		slog.Debug("Dropping results of an outdated poll cycle", "feed", t.Feed.URL, "epoch", t.epoch)
		return nil
	}

	merged := t.store.MergePosts(t.Feed.ID, newPosts(fresh, t.Feed.ID, t.ids))
	t.added = len(merged)
	postsAdded.Add(float64(len(merged)))

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.Feed.URL,
		"duration", t.GetDuration(),
		"total", len(items),
		"new", len(merged))

	return nil
}

// Added reports how many posts the last Execute merged.
func (t *PollFeedTask) Added() int {
	return t.added
}

func (t *PollFeedTask) stale() bool {
	return t.current != nil && t.current.Load() != t.epoch
}

// fail records the failure in the loading process unless the cycle was
// outdated or the scheduler is shutting down.
func (t *PollFeedTask) fail(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || t.stale() {
		return err
	}

	kind := feed.KindOf(err)
	fetchFailures.WithLabelValues(string(t.GetType()), string(kind)).Inc()

	t.store.SetLoadingProcess(state.LoadingProcess{
		Status:  state.StatusFailed,
		Error:   kind,
		FeedURL: t.Feed.URL,
	})
	return err
}
