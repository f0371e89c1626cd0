package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
)

// AddFeedTask subscribes to a new feed: validate, fetch, parse and add the
// feed with its posts in a single store mutation. Every failure branch leaves
// feeds and posts untouched.
type AddFeedTask struct {
	Task
	store     *state.Store
	validator FeedValidator
	fetcher   FeedFetcher
	parser    FeedParser
	ids       IDGenerator
}

func NewAddFeedTask(rawURL string, store *state.Store, validator FeedValidator, fetcher FeedFetcher, parser FeedParser, ids IDGenerator) *AddFeedTask {
	return &AddFeedTask{
		Task:      NewTask(TaskTypeAddFeed, strings.TrimSpace(rawURL)),
		store:     store,
		validator: validator,
		fetcher:   fetcher,
		parser:    parser,
		ids:       ids,
	}
}

func (t *AddFeedTask) Execute(ctx context.Context) error {
	t.store.SetLoadingProcess(state.LoadingProcess{Status: state.StatusLoading})

	if err := t.validator.Run(t.FeedURL, t.store.FeedURLs()); err != nil {
		kind := feed.KindOf(err)
		t.store.SetForm(state.Form{IsValid: false, Error: kind})
		t.store.SetLoadingProcess(state.LoadingProcess{Status: state.StatusFailed, Error: kind})
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	t.store.SetForm(state.Form{IsValid: true})

	data, err := t.fetcher.Run(ctx, t.FeedURL)
	if err != nil {
		return t.fail(fmt.Errorf("failed to fetch feed: %w", err))
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return t.fail(fmt.Errorf("failed to parse feed: %w", asNotFeed(err)))
	}

	newFeed := state.Feed{
		ID:          t.ids.NewID(),
		URL:         t.FeedURL,
		Title:       metadata.Title,
		Description: metadata.Description,
	}
	posts := newPosts(freshItems(nil, items), newFeed.ID, t.ids)

	if err := t.store.AddFeed(newFeed, posts); err != nil {
		// Another submission of the same URL won the race
		t.store.SetForm(state.Form{IsValid: false, Error: feed.KindOf(err)})
		return t.fail(err)
	}

	t.store.SetLoadingProcess(state.LoadingProcess{Status: state.StatusSuccess})
	postsAdded.Add(float64(len(posts)))
	trackedFeeds.Inc()

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedURL,
		"duration", t.GetDuration(),
		"title", newFeed.Title,
		"posts", len(posts))

	return nil
}

func (t *AddFeedTask) fail(err error) error {
	kind := feed.KindOf(err)
	t.store.SetLoadingProcess(state.LoadingProcess{Status: state.StatusFailed, Error: kind})
	fetchFailures.WithLabelValues(string(t.GetType()), string(kind)).Inc()
	return err
}

// asNotFeed makes sure any parser failure reads as NotFeed.
func asNotFeed(err error) error {
	var feedErr *feed.Error
	if errors.As(err, &feedErr) && feedErr.Kind == feed.ErrorKindNotFeed {
		return err
	}
	return feed.NewError(feed.ErrorKindNotFeed, err)
}
