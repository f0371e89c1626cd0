package view

import (
	"testing"
)

func TestBroadcasterFanOut(t *testing.T) {
	broadcaster := NewBroadcaster()
	first := make(chan Fragment, 1)
	second := make(chan Fragment, 1)
	broadcaster.AddClient("first", first)
	broadcaster.AddClient("second", second)

	broadcaster.Broadcast(Fragment{Target: TargetFeeds, HTML: "<div></div>"})

	for name, client := range map[string]chan Fragment{"first": first, "second": second} {
		select {
		case fragment := <-client:
			if fragment.Target != TargetFeeds {
				t.Errorf("Expected target %s for %s, got %s", TargetFeeds, name, fragment.Target)
			}
		default:
			t.Errorf("Expected %s to receive the fragment", name)
		}
	}
}

func TestBroadcasterSkipsFullClients(t *testing.T) {
	broadcaster := NewBroadcaster()
	client := make(chan Fragment)
	broadcaster.AddClient("slow", client)

	// Must not block on an unbuffered channel nobody reads
	broadcaster.Broadcast(Fragment{Target: TargetPosts})

	if broadcaster.ClientCount() != 1 {
		t.Errorf("Expected slow client to stay registered, got %d clients", broadcaster.ClientCount())
	}
}

func TestBroadcasterRemoveAndShutdown(t *testing.T) {
	broadcaster := NewBroadcaster()
	first := make(chan Fragment, 1)
	second := make(chan Fragment, 1)
	broadcaster.AddClient("first", first)
	broadcaster.AddClient("second", second)

	broadcaster.RemoveClient("first")
	broadcaster.RemoveClient("missing")

	if _, ok := <-first; ok {
		t.Error("Expected removed client channel to be closed")
	}
	if broadcaster.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", broadcaster.ClientCount())
	}

	broadcaster.Shutdown()

	if _, ok := <-second; ok {
		t.Error("Expected shutdown to close remaining clients")
	}
	if broadcaster.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", broadcaster.ClientCount())
	}
}
