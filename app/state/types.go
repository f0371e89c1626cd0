package state

import (
	"time"

	"github.com/lysyi3m/rss-reader/app/feed"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Path names a tracked field of State. Handlers are keyed by path.
type Path string

const (
	PathForm           Path = "form"
	PathLoadingProcess Path = "loadingProcess"
	PathFeeds          Path = "feeds"
	PathPosts          Path = "posts"
	PathWatchedPosts   Path = "watchedPosts"
	PathModalPostID    Path = "modal.postId"
)

// Paths lists every tracked path in render order.
var Paths = []Path{
	PathForm,
	PathLoadingProcess,
	PathFeeds,
	PathPosts,
	PathWatchedPosts,
	PathModalPostID,
}

type Form struct {
	IsValid bool           `json:"isValid"`
	Error   feed.ErrorKind `json:"error,omitempty"`
}

// LoadingProcess describes the most recent fetch attempt. FeedURL is set when
// the attempt was a poll of an already tracked feed.
type LoadingProcess struct {
	Status  Status         `json:"status"`
	Error   feed.ErrorKind `json:"error,omitempty"`
	FeedURL string         `json:"feedUrl,omitempty"`
}

type Feed struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Post struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

type Modal struct {
	PostID string `json:"postId"`
}

type State struct {
	Form           Form            `json:"form"`
	LoadingProcess LoadingProcess  `json:"loadingProcess"`
	Feeds          []Feed          `json:"feeds"`
	Posts          []Post          `json:"posts"`
	WatchedPosts   map[string]bool `json:"watchedPosts"`
	Modal          Modal           `json:"modal"`
}

// Handler receives the changed path and a copy of the state taken after the
// mutation was applied.
type Handler func(path Path, snapshot State)
