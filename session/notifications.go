package session

import "time"

// Kind classifies a notification for display.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Error notifications outlive success notifications so failures stay on
// screen long enough to read.
const (
	defaultSuccessTTL = 5 * time.Second
	defaultErrorTTL   = 10 * time.Second
)

// Notification is a user-facing message. IDs are unique and monotonically
// increasing; insertion order is display order. Notifications live only for
// the process lifetime and are never persisted.
type Notification struct {
	ID      uint64
	Message string
	Kind    Kind
}

// AddNotification appends a notification and schedules its expiry. The
// returned ID can be used with RemoveNotification for explicit dismissal.
func (st *Store) AddNotification(message string, kind Kind) uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.addNotificationLocked(message, kind)
}

func (st *Store) addNotificationLocked(message string, kind Kind) uint64 {
	st.nextNotifID++
	id := st.nextNotifID
	st.notifs = append(st.notifs, Notification{ID: id, Message: message, Kind: kind})

	ttl := st.successTTL
	if kind == KindError {
		ttl = st.errorTTL
	}
	time.AfterFunc(ttl, func() { st.RemoveNotification(id) })
	return id
}

// RemoveNotification dismisses a notification by ID. Unknown IDs are a no-op
// so an expiry timer racing an explicit dismissal is harmless.
func (st *Store) RemoveNotification(id uint64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, n := range st.notifs {
		if n.ID == id {
			st.notifs = append(st.notifs[:i], st.notifs[i+1:]...)
			return
		}
	}
}

// Notifications returns the current feed in insertion order.
func (st *Store) Notifications() []Notification {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Notification, len(st.notifs))
	copy(out, st.notifs)
	return out
}
