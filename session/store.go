package session

import (
	"sync"
	"time"
)

// User is the authenticated identity as returned by the auth endpoints.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"is_email_verified"`
}

// Session is the credential pair gating API access. User is present iff a
// login has succeeded and no logout has occurred since; AccessToken may go
// stale independently, which is what triggers a refresh.
type Session struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Authenticated reports whether an identity is present.
func (s Session) Authenticated() bool { return s.User != nil }

func (s Session) clone() Session {
	out := Session{AccessToken: s.AccessToken}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// Store holds the current session and the notification feed. It is a
// process-wide singleton by convention but carries no package-level state:
// callers construct one and pass the handle around.
//
// Every mutation is a whole-state replace under one mutex, so concurrent
// calls serialize in call order and readers never observe partial updates.
type Store struct {
	mu   sync.Mutex
	sess Session
	subs []func(Session)

	notifs      []Notification
	nextNotifID uint64
	successTTL  time.Duration
	errorTTL    time.Duration

	persistPath string
}

// Options configures a Store.
type Options struct {
	// PersistPath is the JSON file the session survives restarts in.
	// Empty disables persistence (useful for tests).
	PersistPath string

	// SuccessTTL / ErrorTTL override the display lifetime of notifications.
	// Zero selects the defaults (5s success, 10s error).
	SuccessTTL time.Duration
	ErrorTTL   time.Duration
}

// NewStore constructs a Store, restoring any persisted session from
// opts.PersistPath. A missing or unreadable state file yields an empty
// session, never an error.
func NewStore(opts Options) *Store {
	st := &Store{
		successTTL:  opts.SuccessTTL,
		errorTTL:    opts.ErrorTTL,
		persistPath: opts.PersistPath,
	}
	if st.successTTL == 0 {
		st.successTTL = defaultSuccessTTL
	}
	if st.errorTTL == 0 {
		st.errorTTL = defaultErrorTTL
	}
	if sess, ok := loadSession(opts.PersistPath); ok {
		st.sess = sess
	}
	return st
}

// Session returns a snapshot of the current session.
func (st *Store) Session() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sess.clone()
}

// AccessToken returns the current access token, or "" when absent.
func (st *Store) AccessToken() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sess.AccessToken
}

// Login sets both session fields atomically.
func (st *Store) Login(accessToken string, user User) {
	st.mu.Lock()
	u := user
	st.sess = Session{AccessToken: accessToken, User: &u}
	snap, subs := st.sess.clone(), st.subscribersLocked()
	st.persistLocked()
	st.mu.Unlock()
	fanOut(snap, subs)
}

// SetAccessToken replaces only the token, leaving the user untouched. Used by
// the refresh protocol.
func (st *Store) SetAccessToken(token string) {
	st.mu.Lock()
	st.sess = Session{AccessToken: token, User: st.sess.User}
	snap, subs := st.sess.clone(), st.subscribersLocked()
	st.persistLocked()
	st.mu.Unlock()
	fanOut(snap, subs)
}

// Logout clears both session fields atomically and appends a logout
// notification. It does not touch the event cache; consumers observing the
// identity change handle that.
func (st *Store) Logout() {
	st.mu.Lock()
	wasActive := st.sess.AccessToken != "" || st.sess.User != nil
	st.sess = Session{}
	if wasActive {
		st.addNotificationLocked("You have been logged out", KindSuccess)
	}
	snap, subs := st.sess.clone(), st.subscribersLocked()
	st.persistLocked()
	st.mu.Unlock()
	fanOut(snap, subs)
}

// Subscribe registers fn to be called after every session mutation with a
// snapshot of the new state. Callbacks run outside the store lock, in
// mutation order.
func (st *Store) Subscribe(fn func(Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs = append(st.subs, fn)
}

func (st *Store) subscribersLocked() []func(Session) {
	out := make([]func(Session), len(st.subs))
	copy(out, st.subs)
	return out
}

func fanOut(snap Session, subs []func(Session)) {
	for _, fn := range subs {
		fn(snap)
	}
}
