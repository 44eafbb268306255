package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/s153756/My-Friend-Calendar/client"
	"github.com/s153756/My-Friend-Calendar/session"
)

type fakeLister struct {
	calls  int32
	events []client.CalendarEvent
	err    error
}

func (f *fakeLister) ListEvents(ctx context.Context) ([]client.CalendarEvent, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeLister) callCount() int32 { return atomic.LoadInt32(&f.calls) }

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSyncerFetchesOncePerLogin(t *testing.T) {
	store := session.NewStore(session.Options{})
	lister := &fakeLister{events: []client.CalendarEvent{
		mkEvent("e1", "one"), mkEvent("e2", "two"), mkEvent("e3", "three"),
	}}
	c := New()
	s := NewSyncer(store, lister, c)
	defer s.Stop()

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	waitFor(t, func() bool { return c.Len() == 3 }, "cache never populated after login")

	// Token rotations with identity intact must not refetch.
	store.SetAccessToken("tok-2")
	store.SetAccessToken("tok-3")
	time.Sleep(50 * time.Millisecond)
	if got := lister.callCount(); got != 1 {
		t.Fatalf("fetch count = %d, want exactly 1 per login", got)
	}
}

func TestSyncerClearsCacheOnLogout(t *testing.T) {
	store := session.NewStore(session.Options{})
	lister := &fakeLister{events: []client.CalendarEvent{mkEvent("e1", "one")}}
	c := New()
	s := NewSyncer(store, lister, c)
	defer s.Stop()

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	waitFor(t, func() bool { return c.Len() == 1 }, "cache never populated")

	store.Logout()
	if c.Len() != 0 {
		t.Fatal("logout must wipe the cache")
	}
}

func TestSyncerRefetchesOnRelogin(t *testing.T) {
	store := session.NewStore(session.Options{})
	lister := &fakeLister{events: []client.CalendarEvent{mkEvent("e1", "one")}}
	c := New()
	s := NewSyncer(store, lister, c)
	defer s.Stop()

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	waitFor(t, func() bool { return c.Len() == 1 }, "first fetch missing")
	store.Logout()
	store.Login("tok-b", session.User{ID: "u2", Email: "c@d.se"})
	waitFor(t, func() bool { return lister.callCount() == 2 }, "second login never fetched")
}

func TestSyncerRecordsFetchFailure(t *testing.T) {
	store := session.NewStore(session.Options{})
	boom := errors.New("backend down")
	lister := &fakeLister{err: boom}
	c := New()
	c.Add(mkEvent("stale", "survivor"))
	s := NewSyncer(store, lister, c)
	defer s.Stop()

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	waitFor(t, func() bool { return c.Err() != nil }, "fetch error never recorded")

	if !errors.Is(c.Err(), boom) {
		t.Fatalf("err = %v, want the fetch error", c.Err())
	}
	if c.Loading() {
		t.Fatal("loading flag must clear on failure")
	}
	if _, ok := c.Get("stale"); !ok {
		t.Fatal("a failed fetch must leave existing contents untouched")
	}
}

type gatedLister struct {
	entered chan struct{}
	release chan struct{}
	events  []client.CalendarEvent
}

func (g *gatedLister) ListEvents(ctx context.Context) ([]client.CalendarEvent, error) {
	close(g.entered)
	<-g.release
	return g.events, nil
}

func TestSyncerStopDiscardsLateResponse(t *testing.T) {
	store := session.NewStore(session.Options{})
	lister := &gatedLister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		events:  []client.CalendarEvent{mkEvent("late", "stale response")},
	}
	c := New()
	s := NewSyncer(store, lister, c)

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	<-lister.entered

	// Teardown happens while the fetch is still on the wire; the response
	// that arrives afterwards must be discarded.
	s.Stop()
	close(lister.release)

	// Give the goroutine ample time to (incorrectly) install the snapshot.
	time.Sleep(100 * time.Millisecond)
	if c.Len() != 0 {
		t.Fatalf("cache has %d events, want none after Stop", c.Len())
	}
}

func TestSyncerRefetchReplacesSnapshot(t *testing.T) {
	store := session.NewStore(session.Options{})
	lister := &fakeLister{events: []client.CalendarEvent{mkEvent("e1", "one")}}
	c := New()
	s := NewSyncer(store, lister, c)
	defer s.Stop()

	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	waitFor(t, func() bool { return c.Len() == 1 }, "initial fetch missing")

	lister.events = []client.CalendarEvent{mkEvent("e2", "two"), mkEvent("e3", "three")}
	if err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if _, ok := c.Get("e1"); ok {
		t.Fatal("refetch must replace, not merge")
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}
