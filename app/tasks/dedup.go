package tasks

import (
	"cmp"

	"github.com/samber/lo"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
)

// postLink is the dedup key of an item. Items without a link fall back to
// their guid.
func postLink(item feed.Item) string {
	return cmp.Or(item.Link, item.GUID)
}

// freshItems returns the items whose link is not among existing, keeping the
// first occurrence of links repeated inside the batch. Document order is kept.
func freshItems(existing []state.Post, items []feed.Item) []feed.Item {
	known := lo.SliceToMap(existing, func(p state.Post) (string, struct{}) {
		return p.Link, struct{}{}
	})

	return lo.Filter(lo.UniqBy(items, postLink), func(item feed.Item, _ int) bool {
		if postLink(item) == "" {
			return false
		}
		_, seen := known[postLink(item)]
		return !seen
	})
}

func newPosts(items []feed.Item, channelID string, ids IDGenerator) []state.Post {
	return lo.Map(items, func(item feed.Item, _ int) state.Post {
		return state.Post{
			ID:          ids.NewID(),
			ChannelID:   channelID,
			Title:       item.Title,
			Description: cmp.Or(item.Description, item.Content),
			Link:        postLink(item),
			Author:      lo.FirstOrEmpty(item.Authors),
			PublishedAt: item.PublishedAt,
		}
	})
}
