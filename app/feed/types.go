package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Description string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time // zero when the feed omits it
	Authors     []string
	Categories  []string
}

// Subscription file types

type Subscriptions struct {
	Feeds []Subscription `yaml:"feeds"`
}

type Subscription struct {
	URL string `yaml:"url"`
}
