package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
	"github.com/lysyi3m/rss-reader/app/view"
)

const clientBufferSize = 32

type Handler struct {
	store       *state.Store
	scheduler   SchedulerInterface
	renderer    *view.Renderer
	broadcaster *view.Broadcaster
	generator   GeneratorInterface
	version     string
}

func NewHandler(store *state.Store, scheduler SchedulerInterface, renderer *view.Renderer,
	broadcaster *view.Broadcaster, generator GeneratorInterface, version string) *Handler {
	return &Handler{
		store:       store,
		scheduler:   scheduler,
		renderer:    renderer,
		broadcaster: broadcaster,
		generator:   generator,
		version:     version,
	}
}

func (h *Handler) GetPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	if err := h.renderer.Page(c.Writer, h.store.Snapshot()); err != nil {
		slog.Error("Page rendering error", "error", err)
	}
}

func (h *Handler) SubmitFeed(c *gin.Context) {
	rawURL := c.PostForm("url")

	if err := h.scheduler.SubmitURL(rawURL); err != nil {
		slog.Error("Error enqueueing add feed task", "url", rawURL, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue feed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) OpenPost(c *gin.Context) {
	id := c.Param("id")

	if !h.store.MarkWatched(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	h.store.SelectPost(id)

	c.Status(http.StatusNoContent)
}

func (h *Handler) ClosePreview(c *gin.Context) {
	h.store.ClosePreview()
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetFullArticle(c *gin.Context) {
	id := c.Param("id")

	if _, ok := h.store.Post(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	article, err := h.scheduler.ExtractContent(c.Request.Context(), id)
	if err != nil {
		slog.Warn("Content extraction failed", "post_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to extract article",
			"kind":  feed.KindOf(err),
		})
		return
	}

	c.JSON(http.StatusOK, article)
}

// Events streams re-rendered fragments to the page until the client leaves.
func (h *Handler) Events(c *gin.Context) {
	key := uuid.NewString()
	client := make(chan view.Fragment, clientBufferSize)

	h.broadcaster.AddClient(key, client)
	defer h.broadcaster.RemoveClient(key)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case fragment, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent(fragment.Target, fragment.HTML)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *Handler) Refresh(c *gin.Context) {
	start := time.Now()
	added := h.scheduler.RunCycle(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"new_posts": added,
		"duration":  time.Since(start).String(),
	})
}

func (h *Handler) GetRSS(c *gin.Context) {
	snapshot := h.store.Snapshot()

	titles := lo.SliceToMap(snapshot.Feeds, func(f state.Feed) (string, string) {
		return f.ID, f.Title
	})

	items := lo.Map(snapshot.Posts, func(p state.Post, _ int) feed.Item {
		return feed.Item{
			GUID:        p.Link,
			Title:       p.Title,
			Link:        p.Link,
			Description: p.Description,
			PublishedAt: p.PublishedAt,
			Authors:     lo.Compact([]string{p.Author}),
			Categories:  lo.Compact([]string{titles[p.ChannelID]}),
		}
	})

	rss, err := h.generator.Run(feed.Metadata{}, items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	snapshot := h.store.Snapshot()

	c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"feeds":     len(snapshot.Feeds),
		"posts":     len(snapshot.Posts),
		"clients":   h.broadcaster.ClientCount(),
	})
}
