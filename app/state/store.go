package state

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/lysyi3m/rss-reader/app/feed"
)

// Store is the single in-memory application state. Every mutation runs under
// the lock and the handlers for the paths it changed run after the lock is
// released, in the order the paths were changed. Deliveries never overlap and
// each one carries a snapshot at least as new as the one before it.
type Store struct {
	mu       sync.RWMutex
	emitMu   sync.Mutex
	state    State
	handlers map[Path]Handler
}

func NewStore() *Store {
	return &Store{
		state: State{
			Form:           Form{IsValid: true},
			LoadingProcess: LoadingProcess{Status: StatusIdle},
			Feeds:          []Feed{},
			Posts:          []Post{},
			WatchedPosts:   make(map[string]bool),
		},
		handlers: make(map[Path]Handler),
	}
}

// Subscribe registers handler for path, replacing any previous one.
func (s *Store) Subscribe(path Path, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handler == nil {
		delete(s.handlers, path)
		return
	}
	s.handlers[path] = handler
}

// EmitAll invokes every registered handler once with the current state.
func (s *Store) EmitAll() {
	s.emit(Paths...)
}

func (s *Store) SetForm(form Form) {
	s.mu.Lock()
	changed := s.state.Form != form
	s.state.Form = form
	s.mu.Unlock()

	if changed {
		s.emit(PathForm)
	}
}

func (s *Store) SetLoadingProcess(process LoadingProcess) {
	s.mu.Lock()
	changed := s.state.LoadingProcess != process
	s.state.LoadingProcess = process
	s.mu.Unlock()

	if changed {
		s.emit(PathLoadingProcess)
	}
}

// AddFeed prepends a newly tracked feed together with its initial posts in one
// mutation. It fails without touching the state when the URL is already
// tracked. Posts are bound to the feed and repeated links are dropped.
func (s *Store) AddFeed(newFeed Feed, posts []Post) error {
	s.mu.Lock()

	if slices.ContainsFunc(s.state.Feeds, func(f Feed) bool { return f.URL == newFeed.URL }) {
		s.mu.Unlock()
		return feed.NewError(feed.ErrorKindDuplicateFeed, fmt.Errorf("feed %q is already tracked", newFeed.URL))
	}

	posts = lo.Map(lo.UniqBy(posts, func(p Post) string { return p.Link }), func(p Post, _ int) Post {
		p.ChannelID = newFeed.ID
		return p
	})

	s.state.Feeds = slices.Concat([]Feed{newFeed}, s.state.Feeds)
	if len(posts) > 0 {
		s.state.Posts = slices.Concat(posts, s.state.Posts)
	}
	s.mu.Unlock()

	slog.Debug("Feed added to store", "feed", newFeed.URL, "posts", len(posts))

	if len(posts) > 0 {
		s.emit(PathFeeds, PathPosts)
	} else {
		s.emit(PathFeeds)
	}

	return nil
}

// MergePosts prepends the posts of channelID whose links are not known yet
// and returns the ones that were actually added. Links are checked against
// the state at merge time, so overlapping polls never duplicate a post.
func (s *Store) MergePosts(channelID string, posts []Post) []Post {
	s.mu.Lock()

	if !slices.ContainsFunc(s.state.Feeds, func(f Feed) bool { return f.ID == channelID }) {
		s.mu.Unlock()
		slog.Warn("Dropping posts for unknown channel", "channel_id", channelID, "count", len(posts))
		return nil
	}

	known := lo.SliceToMap(s.channelPosts(channelID), func(p Post) (string, struct{}) {
		return p.Link, struct{}{}
	})

	fresh := lo.FilterMap(lo.UniqBy(posts, func(p Post) string { return p.Link }), func(p Post, _ int) (Post, bool) {
		_, seen := known[p.Link]
		p.ChannelID = channelID
		return p, !seen
	})

	if len(fresh) > 0 {
		s.state.Posts = slices.Concat(fresh, s.state.Posts)
	}
	s.mu.Unlock()

	if len(fresh) > 0 {
		s.emit(PathPosts)
	}

	return fresh
}

// MarkWatched adds postID to the watched set. Membership is never revoked.
func (s *Store) MarkWatched(postID string) bool {
	s.mu.Lock()
	if _, ok := s.findPost(postID); !ok {
		s.mu.Unlock()
		return false
	}

	changed := !s.state.WatchedPosts[postID]
	s.state.WatchedPosts[postID] = true
	s.mu.Unlock()

	if changed {
		s.emit(PathWatchedPosts)
	}
	return true
}

// SelectPost opens postID in the preview pane.
func (s *Store) SelectPost(postID string) bool {
	s.mu.Lock()
	if _, ok := s.findPost(postID); !ok {
		s.mu.Unlock()
		return false
	}

	changed := s.state.Modal.PostID != postID
	s.state.Modal.PostID = postID
	s.mu.Unlock()

	if changed {
		s.emit(PathModalPostID)
	}
	return true
}

func (s *Store) ClosePreview() {
	s.mu.Lock()
	changed := s.state.Modal.PostID != ""
	s.state.Modal.PostID = ""
	s.mu.Unlock()

	if changed {
		s.emit(PathModalPostID)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Feeds() []Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Feeds)
}

func (s *Store) FeedURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.state.Feeds, func(f Feed, _ int) string { return f.URL })
}

func (s *Store) PostsForChannel(channelID string) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelPosts(channelID)
}

func (s *Store) Post(postID string) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPost(postID)
}

func (s *Store) IsWatched(postID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.WatchedPosts[postID]
}

func (s *Store) snapshot() State {
	snapshot := s.state
	snapshot.Feeds = slices.Clone(s.state.Feeds)
	snapshot.Posts = slices.Clone(s.state.Posts)
	snapshot.WatchedPosts = maps.Clone(s.state.WatchedPosts)
	return snapshot
}

func (s *Store) channelPosts(channelID string) []Post {
	return lo.Filter(s.state.Posts, func(p Post, _ int) bool { return p.ChannelID == channelID })
}

func (s *Store) findPost(postID string) (Post, bool) {
	return lo.Find(s.state.Posts, func(p Post) bool { return p.ID == postID })
}

// emit takes the snapshot only after earlier deliveries finished, so handlers
// must not mutate the store.
func (s *Store) emit(paths ...Path) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.RLock()
	handlers := make([]Handler, len(paths))
	registered := false
	for i, path := range paths {
		handlers[i] = s.handlers[path]
		registered = registered || handlers[i] != nil
	}
	if !registered {
		s.mu.RUnlock()
		return
	}
	snapshot := s.snapshot()
	s.mu.RUnlock()

	for i, path := range paths {
		if handlers[i] != nil {
			handlers[i](path, snapshot)
		}
	}
}
