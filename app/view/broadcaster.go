package view

import (
	"log/slog"
	"sync"
)

// Fragment is a re-rendered piece of the page. Target is the id of the
// element it replaces and doubles as the SSE event name.
type Fragment struct {
	Target string
	HTML   string
}

// Broadcaster fans fragments out to connected SSE clients. Sends never block:
// a client whose buffer is full misses the fragment.
type Broadcaster struct {
	sync.RWMutex
	clients map[string]chan Fragment
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]chan Fragment),
	}
}

func (b *Broadcaster) Broadcast(fragment Fragment) {
	b.RLock()
	defer b.RUnlock()

	for key, client := range b.clients {
		select {
		case client <- fragment:
		default:
			slog.Warn("Client channel full, skipping fragment", "client", key, "target", fragment.Target)
		}
	}
}

func (b *Broadcaster) AddClient(key string, client chan Fragment) {
	b.Lock()
	defer b.Unlock()

	b.clients[key] = client
	slog.Debug("Adding client to broadcaster", "client", key, "count", len(b.clients))
}

func (b *Broadcaster) RemoveClient(key string) {
	b.Lock()
	defer b.Unlock()

	if client, ok := b.clients[key]; ok {
		close(client)
		delete(b.clients, key)
	}
	slog.Debug("Removed client from broadcaster", "client", key, "count", len(b.clients))
}

func (b *Broadcaster) ClientCount() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.clients)
}

// Shutdown closes every client channel so open streams end.
func (b *Broadcaster) Shutdown() {
	b.Lock()
	defer b.Unlock()

	for key, client := range b.clients {
		close(client)
		delete(b.clients, key)
	}
}
