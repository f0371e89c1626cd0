package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/rss-reader/app/feed"
)

type fakeFeed struct {
	title       string
	description string
	items       []feed.Item
}

// fakeSource backs fakeFetcher and fakeParser. The fetcher returns the URL as
// the document body and the parser looks the URL up in feeds.
type fakeSource struct {
	mu     sync.Mutex
	feeds  map[string]fakeFeed
	errs   map[string]error
	panics map[string]bool
	calls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		feeds:  make(map[string]fakeFeed),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (s *fakeSource) setFeed(url string, f fakeFeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[url] = f
	delete(s.errs, url)
}

func (s *fakeSource) setError(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[url] = err
}

func (s *fakeSource) setPanic(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[url] = true
}

func (s *fakeSource) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *fakeSource) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

type fakeFetcher struct {
	src *fakeSource
}

func (f *fakeFetcher) Run(ctx context.Context, url string) ([]byte, error) {
	f.src.mu.Lock()
	f.src.calls[url]++
	err := f.src.errs[url]
	shouldPanic := f.src.panics[url]
	f.src.mu.Unlock()

	if shouldPanic {
		panic("fetcher exploded")
	}
	if err != nil {
		return nil, err
	}
	return []byte(url), nil
}

type fakeParser struct {
	src *fakeSource
}

func (p *fakeParser) Run(data []byte) (*feed.Metadata, []feed.Item, error) {
	p.src.mu.Lock()
	defer p.src.mu.Unlock()

	f, ok := p.src.feeds[string(data)]
	if !ok {
		return nil, nil, feed.NewError(feed.ErrorKindNotFeed, errors.New("no channel element"))
	}

	items := make([]feed.Item, len(f.items))
	copy(items, f.items)
	return &feed.Metadata{Title: f.title, Description: f.description}, items, nil
}

type fakeExtractor struct {
	err error
}

func (e *fakeExtractor) Run(data []byte, pageURL string) (*feed.Article, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &feed.Article{Title: "Full", Content: "<p>" + string(data) + "</p>"}, nil
}
