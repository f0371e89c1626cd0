package state

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rss-reader/app/feed"
)

type recorder struct {
	mu    sync.Mutex
	paths []Path
}

func (r *recorder) handler(path Path, _ State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) subscribeAll(store *Store) {
	for _, path := range Paths {
		store.Subscribe(path, r.handler)
	}
}

func (r *recorder) take() []Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := r.paths
	r.paths = nil
	return paths
}

func seedFeed(t *testing.T, store *Store) Feed {
	t.Helper()
	f := Feed{ID: "feed-1", URL: "http://example.com/a.rss", Title: "A", Description: "d"}
	posts := []Post{
		{ID: "post-1", Title: "P1", Link: "http://x/1"},
	}
	if err := store.AddFeed(f, posts); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return f
}

func TestNewStoreInitialState(t *testing.T) {
	snapshot := NewStore().Snapshot()

	if snapshot.LoadingProcess.Status != StatusIdle {
		t.Errorf("Expected status idle, got %s", snapshot.LoadingProcess.Status)
	}
	if !snapshot.Form.IsValid {
		t.Error("Expected form to start valid")
	}
	if len(snapshot.Feeds) != 0 || len(snapshot.Posts) != 0 {
		t.Errorf("Expected empty collections, got %d feeds and %d posts", len(snapshot.Feeds), len(snapshot.Posts))
	}
}

func TestAddFeedEmitsFeedsThenPosts(t *testing.T) {
	store := NewStore()
	rec := &recorder{}
	rec.subscribeAll(store)

	f := seedFeed(t, store)

	if paths := rec.take(); !slices.Equal(paths, []Path{PathFeeds, PathPosts}) {
		t.Errorf("Expected [feeds posts], got %v", paths)
	}

	snapshot := store.Snapshot()
	if len(snapshot.Feeds) != 1 || snapshot.Feeds[0].URL != f.URL {
		t.Fatalf("Expected one feed with url %s, got %v", f.URL, snapshot.Feeds)
	}
	if len(snapshot.Posts) != 1 || snapshot.Posts[0].ChannelID != f.ID {
		t.Fatalf("Expected one post bound to %s, got %v", f.ID, snapshot.Posts)
	}
}

func TestAddFeedPrependsAndBindsPosts(t *testing.T) {
	store := NewStore()
	seedFeed(t, store)

	second := Feed{ID: "feed-2", URL: "http://example.com/b.rss", Title: "B"}
	posts := []Post{
		{ID: "post-2", ChannelID: "wrong", Link: "http://y/1"},
		{ID: "post-3", Link: "http://y/2"},
		{ID: "post-4", Link: "http://y/1"},
	}
	if err := store.AddFeed(second, posts); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	snapshot := store.Snapshot()
	if snapshot.Feeds[0].ID != "feed-2" {
		t.Errorf("Expected newest feed first, got %s", snapshot.Feeds[0].ID)
	}

	ids := make([]string, 0, len(snapshot.Posts))
	for _, p := range snapshot.Posts {
		ids = append(ids, p.ID)
	}
	if !slices.Equal(ids, []string{"post-2", "post-3", "post-1"}) {
		t.Errorf("Expected [post-2 post-3 post-1], got %v", ids)
	}

	for _, p := range store.PostsForChannel("feed-2") {
		if p.ChannelID != "feed-2" {
			t.Errorf("Expected post %s bound to feed-2, got %s", p.ID, p.ChannelID)
		}
	}
}

func TestAddFeedRejectsDuplicateURL(t *testing.T) {
	store := NewStore()
	seedFeed(t, store)
	before := store.Snapshot()

	rec := &recorder{}
	rec.subscribeAll(store)

	err := store.AddFeed(Feed{ID: "feed-9", URL: "http://example.com/a.rss"}, []Post{{ID: "post-9", Link: "http://z/1"}})
	if kind := feed.KindOf(err); kind != feed.ErrorKindDuplicateFeed {
		t.Fatalf("Expected kind %q, got %q", feed.ErrorKindDuplicateFeed, kind)
	}

	after := store.Snapshot()
	if !slices.Equal(before.Feeds, after.Feeds) || !slices.Equal(before.Posts, after.Posts) {
		t.Error("Expected feeds and posts to be unchanged")
	}
	if paths := rec.take(); len(paths) != 0 {
		t.Errorf("Expected no emissions, got %v", paths)
	}
}

func TestMergePostsSkipsKnownLinks(t *testing.T) {
	store := NewStore()
	f := seedFeed(t, store)

	rec := &recorder{}
	rec.subscribeAll(store)

	merged := store.MergePosts(f.ID, []Post{
		{ID: "post-2", Link: "http://x/2"},
		{ID: "post-3", Link: "http://x/1"},
		{ID: "post-4", Link: "http://x/2"},
	})

	if len(merged) != 1 || merged[0].ID != "post-2" {
		t.Fatalf("Expected only post-2 to be merged, got %v", merged)
	}
	if merged[0].ChannelID != f.ID {
		t.Errorf("Expected merged post bound to %s, got %s", f.ID, merged[0].ChannelID)
	}
	if paths := rec.take(); !slices.Equal(paths, []Path{PathPosts}) {
		t.Errorf("Expected [posts], got %v", paths)
	}

	again := store.MergePosts(f.ID, []Post{{ID: "post-5", Link: "http://x/2"}})
	if len(again) != 0 {
		t.Errorf("Expected nothing merged on repeat, got %v", again)
	}
	if paths := rec.take(); len(paths) != 0 {
		t.Errorf("Expected no emission for an empty merge, got %v", paths)
	}
	if count := len(store.Snapshot().Posts); count != 2 {
		t.Errorf("Expected 2 posts, got %d", count)
	}
}

func TestMergePostsSameLinkDifferentChannels(t *testing.T) {
	store := NewStore()
	seedFeed(t, store)
	if err := store.AddFeed(Feed{ID: "feed-2", URL: "http://example.com/b.rss"}, nil); err != nil {
		t.Fatal(err)
	}

	merged := store.MergePosts("feed-2", []Post{{ID: "post-2", Link: "http://x/1"}})
	if len(merged) != 1 {
		t.Errorf("Expected link uniqueness to be scoped per channel, got %v", merged)
	}
}

func TestMergePostsUnknownChannel(t *testing.T) {
	store := NewStore()
	if merged := store.MergePosts("missing", []Post{{ID: "post-1", Link: "http://x/1"}}); merged != nil {
		t.Errorf("Expected no posts merged for unknown channel, got %v", merged)
	}
	if len(store.Snapshot().Posts) != 0 {
		t.Error("Expected posts to stay empty")
	}
}

func TestConcurrentMergesNeverDuplicate(t *testing.T) {
	store := NewStore()
	f := seedFeed(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.MergePosts(f.ID, []Post{{ID: string(rune('a' + i)), Link: "http://x/2"}})
		}(i)
	}
	wg.Wait()

	if count := len(store.PostsForChannel(f.ID)); count != 2 {
		t.Errorf("Expected 2 posts after racing merges, got %d", count)
	}
}

func TestConcurrentMergesDeliverInOrder(t *testing.T) {
	store := NewStore()
	f := seedFeed(t, store)

	var mu sync.Mutex
	var counts []int
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true

	store.Subscribe(PathPosts, func(_ Path, snapshot State) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()

		if block {
			close(entered)
			<-release
		}

		mu.Lock()
		counts = append(counts, len(snapshot.Posts))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.MergePosts(f.ID, []Post{{ID: "post-2", Link: "http://x/2"}})
	}()
	<-entered

	go func() {
		defer wg.Done()
		store.MergePosts(f.ID, []Post{{ID: "post-3", Link: "http://x/3"}})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(store.Snapshot().Posts) != 3 {
		if time.Now().After(deadline) {
			t.Fatal("Expected second merge to land while the first delivery is pending")
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()

	if len(counts) != 2 {
		t.Fatalf("Expected 2 deliveries, got %v", counts)
	}
	if counts[0] > counts[1] {
		t.Errorf("Expected deliveries in store order, got post counts %v", counts)
	}
	if last := counts[len(counts)-1]; last != 3 {
		t.Errorf("Expected last delivery to see 3 posts, got %d", last)
	}
}

func TestMarkWatchedIsMonotonic(t *testing.T) {
	store := NewStore()
	f := seedFeed(t, store)

	rec := &recorder{}
	rec.subscribeAll(store)

	if !store.MarkWatched("post-1") {
		t.Fatal("Expected known post to be marked")
	}
	if store.MarkWatched("post-1"); !store.IsWatched("post-1") {
		t.Error("Expected post-1 to stay watched")
	}
	if paths := rec.take(); !slices.Equal(paths, []Path{PathWatchedPosts}) {
		t.Errorf("Expected a single watchedPosts emission, got %v", paths)
	}

	store.MergePosts(f.ID, []Post{{ID: "post-2", Link: "http://x/2"}})
	store.SetLoadingProcess(LoadingProcess{Status: StatusFailed, Error: feed.ErrorKindNetwork})

	if !store.IsWatched("post-1") {
		t.Error("Expected post-1 to remain watched after further mutations")
	}
	if store.MarkWatched("missing") {
		t.Error("Expected unknown post to be rejected")
	}
}

func TestSelectAndClosePreview(t *testing.T) {
	store := NewStore()
	seedFeed(t, store)

	rec := &recorder{}
	rec.subscribeAll(store)

	if !store.SelectPost("post-1") {
		t.Fatal("Expected known post to be selected")
	}
	if got := store.Snapshot().Modal.PostID; got != "post-1" {
		t.Errorf("Expected modal post-1, got %s", got)
	}

	store.ClosePreview()
	store.ClosePreview()

	if got := store.Snapshot().Modal.PostID; got != "" {
		t.Errorf("Expected modal to be closed, got %s", got)
	}
	if paths := rec.take(); !slices.Equal(paths, []Path{PathModalPostID, PathModalPostID}) {
		t.Errorf("Expected two modal emissions, got %v", paths)
	}
	if store.SelectPost("missing") {
		t.Error("Expected unknown post to be rejected")
	}
}

func TestSubscribeLastRegistrationWins(t *testing.T) {
	store := NewStore()

	var first, second int
	store.Subscribe(PathForm, func(Path, State) { first++ })
	store.Subscribe(PathForm, func(Path, State) { second++ })

	store.SetForm(Form{IsValid: false, Error: feed.ErrorKindInvalidURL})

	if first != 0 || second != 1 {
		t.Errorf("Expected only the last handler to run, got first=%d second=%d", first, second)
	}
}

func TestHandlerSeesMutation(t *testing.T) {
	store := NewStore()

	var seen LoadingProcess
	store.Subscribe(PathLoadingProcess, func(_ Path, snapshot State) {
		seen = snapshot.LoadingProcess
	})

	want := LoadingProcess{Status: StatusFailed, Error: feed.ErrorKindTimeout, FeedURL: "http://example.com/a.rss"}
	store.SetLoadingProcess(want)

	if seen != want {
		t.Errorf("Expected handler to see %+v, got %+v", want, seen)
	}
}

func TestUnchangedValuesDoNotEmit(t *testing.T) {
	store := NewStore()
	rec := &recorder{}
	rec.subscribeAll(store)

	store.SetForm(Form{IsValid: true})
	store.SetLoadingProcess(LoadingProcess{Status: StatusIdle})

	if paths := rec.take(); len(paths) != 0 {
		t.Errorf("Expected no emissions, got %v", paths)
	}
}

func TestHandlerMayReadStore(t *testing.T) {
	store := NewStore()

	var urls []string
	store.Subscribe(PathFeeds, func(Path, State) {
		urls = store.FeedURLs()
	})
	seedFeed(t, store)

	if !slices.Equal(urls, []string{"http://example.com/a.rss"}) {
		t.Errorf("Expected handler to read the new feed, got %v", urls)
	}
}

func TestEmitAll(t *testing.T) {
	store := NewStore()
	rec := &recorder{}
	rec.subscribeAll(store)

	store.EmitAll()

	if paths := rec.take(); !slices.Equal(paths, Paths) {
		t.Errorf("Expected %v, got %v", Paths, paths)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	store := NewStore()
	seedFeed(t, store)
	store.MarkWatched("post-1")

	snapshot := store.Snapshot()
	snapshot.Posts[0].Title = "changed"
	snapshot.WatchedPosts["other"] = true

	if post, _ := store.Post("post-1"); post.Title != "P1" {
		t.Errorf("Expected store post to be unchanged, got %s", post.Title)
	}
	if store.IsWatched("other") {
		t.Error("Expected watched set to be unchanged")
	}
}
