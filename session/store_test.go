package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoginSetsBothFieldsAtomically(t *testing.T) {
	st := NewStore(Options{})
	st.Login("tok", User{ID: "u1", Email: "a@b.se", EmailVerified: true})

	sess := st.Session()
	if sess.AccessToken != "tok" {
		t.Fatalf("token = %q, want tok", sess.AccessToken)
	}
	if !sess.Authenticated() || sess.User.Email != "a@b.se" {
		t.Fatalf("user = %+v", sess.User)
	}
}

func TestSetAccessTokenKeepsIdentity(t *testing.T) {
	st := NewStore(Options{})
	st.Login("tok-old", User{ID: "u1", Email: "a@b.se"})
	st.SetAccessToken("tok-new")

	sess := st.Session()
	if sess.AccessToken != "tok-new" {
		t.Fatalf("token = %q, want tok-new", sess.AccessToken)
	}
	if !sess.Authenticated() {
		t.Fatal("token rotation must not drop the identity")
	}
}

func TestLogoutClearsEverythingAndNotifies(t *testing.T) {
	st := NewStore(Options{})
	st.Login("tok", User{ID: "u1", Email: "a@b.se"})
	st.Logout()

	sess := st.Session()
	if sess.AccessToken != "" || sess.Authenticated() {
		t.Fatalf("session not cleared: %+v", sess)
	}
	notifs := st.Notifications()
	if len(notifs) != 1 || notifs[0].Message != "You have been logged out" {
		t.Fatalf("notifications = %+v", notifs)
	}
	if notifs[0].Kind != KindSuccess {
		t.Fatalf("kind = %q, want success", notifs[0].Kind)
	}
}

func TestLogoutWithoutSessionAddsNoNotification(t *testing.T) {
	st := NewStore(Options{})
	st.Logout()
	if n := len(st.Notifications()); n != 0 {
		t.Fatalf("notifications = %d, want 0", n)
	}
}

func TestSessionSnapshotIsDetached(t *testing.T) {
	st := NewStore(Options{})
	st.Login("tok", User{ID: "u1", Email: "a@b.se"})

	snap := st.Session()
	snap.User.Email = "tampered@b.se"
	if st.Session().User.Email != "a@b.se" {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}

func TestSubscribersSeeMutationsInOrder(t *testing.T) {
	st := NewStore(Options{})
	var seen []string
	st.Subscribe(func(s Session) {
		switch {
		case s.Authenticated():
			seen = append(seen, "login:"+s.AccessToken)
		default:
			seen = append(seen, "logout")
		}
	})

	st.Login("t1", User{ID: "u1", Email: "a@b.se"})
	st.SetAccessToken("t2")
	st.Logout()

	want := []string{"login:t1", "login:t2", "logout"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestNotificationIDsAreMonotonic(t *testing.T) {
	st := NewStore(Options{SuccessTTL: time.Minute, ErrorTTL: time.Minute})
	id1 := st.AddNotification("one", KindError)
	id2 := st.AddNotification("two", KindSuccess)
	if id2 <= id1 {
		t.Fatalf("ids = %d, %d, want strictly increasing", id1, id2)
	}

	notifs := st.Notifications()
	if len(notifs) != 2 || notifs[0].Message != "one" || notifs[1].Message != "two" {
		t.Fatalf("notifications = %+v, want insertion order", notifs)
	}

	st.RemoveNotification(id1)
	st.RemoveNotification(id1) // second dismissal is a no-op
	notifs = st.Notifications()
	if len(notifs) != 1 || notifs[0].ID != id2 {
		t.Fatalf("notifications = %+v, want only the second", notifs)
	}
}

func TestNotificationsExpire(t *testing.T) {
	st := NewStore(Options{SuccessTTL: 10 * time.Millisecond, ErrorTTL: 10 * time.Millisecond})
	st.AddNotification("fleeting", KindSuccess)

	deadline := time.Now().Add(time.Second)
	for len(st.Notifications()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")

	first := NewStore(Options{PersistPath: path})
	first.Login("tok-persist", User{ID: "u1", Email: "a@b.se", EmailVerified: true})

	second := NewStore(Options{PersistPath: path})
	sess := second.Session()
	if sess.AccessToken != "tok-persist" || !sess.Authenticated() {
		t.Fatalf("restored session = %+v", sess)
	}
	if sess.User.Email != "a@b.se" || !sess.User.EmailVerified {
		t.Fatalf("restored user = %+v", sess.User)
	}

	second.Logout()
	third := NewStore(Options{PersistPath: path})
	if third.Session().Authenticated() {
		t.Fatal("logout not persisted")
	}
}

func TestCorruptStateFileYieldsEmptySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(Options{PersistPath: path})
	if st.Session().Authenticated() || st.AccessToken() != "" {
		t.Fatal("corrupt state file must yield an empty session")
	}
}
