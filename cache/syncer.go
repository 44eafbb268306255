package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/client"
	"github.com/s153756/My-Friend-Calendar/session"
)

// EventLister is the slice of the API client the syncer needs.
type EventLister interface {
	ListEvents(ctx context.Context) ([]client.CalendarEvent, error)
}

// Syncer keeps the cache aligned with the session lifecycle: one fetch per
// transition from no identity to identity, a wipe on identity loss, and
// nothing on token rotations in between.
type Syncer struct {
	cache  *Cache
	lister EventLister

	fetchTimeout time.Duration

	// gen stamps each authenticated phase. A fetch started under one
	// generation discards its result if the generation moved on, so a
	// logout-then-login race can never install a stale snapshot.
	mu     sync.Mutex
	gen    uint64
	hadID  bool
	stopCh chan struct{}
}

// NewSyncer wires a Syncer to a session store. Fetches run in the background
// with their own timeout, detached from whatever triggered the login.
func NewSyncer(store *session.Store, lister EventLister, cache *Cache) *Syncer {
	s := &Syncer{
		cache:        cache,
		lister:       lister,
		fetchTimeout: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
	store.Subscribe(s.onSession)
	return s
}

// onSession runs under the store's fan-out; it must decide quickly and push
// slow work onto a goroutine.
func (s *Syncer) onSession(sess session.Session) {
	hasID := sess.Authenticated()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case hasID && !s.hadID:
		s.hadID = true
		s.gen++
		gen := s.gen
		s.cache.setLoading(true)
		go s.fetch(gen)
	case !hasID && s.hadID:
		s.hadID = false
		s.gen++
		s.cache.Clear()
	}
	// Token rotation with identity intact: nothing to do. The cache stays,
	// the generation stays.
}

func (s *Syncer) fetch(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	select {
	case <-s.stopCh:
		return
	default:
	}

	events, err := s.lister.ListEvents(ctx)
	// Re-checked after the call: Stop and logout both advance the generation,
	// so a response that raced either one is discarded here.
	if gen != s.currentGen() {
		log.Debug().Uint64("gen", gen).Msg("discarding fetch from a torn-down session")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("event fetch failed")
		s.cache.setErr(err)
		return
	}
	s.cache.Replace(events)
	log.Debug().Int("count", len(events)).Msg("cache populated")
}

func (s *Syncer) currentGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Refetch forces a fresh snapshot for the current session, e.g. after a
// mutation performed outside this process.
func (s *Syncer) Refetch(ctx context.Context) error {
	s.cache.setLoading(true)
	events, err := s.lister.ListEvents(ctx)
	if err != nil {
		s.cache.setErr(err)
		return err
	}
	s.cache.Replace(events)
	return nil
}

// Stop prevents any in-flight background fetch from mutating the cache:
// advancing the generation invalidates responses already on the wire, and the
// closed channel stops fetches that have not started yet.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}
