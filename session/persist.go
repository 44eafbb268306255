package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Only the access token and the user survive restarts; the token is treated
// as ephemeral-but-persisted for simplicity, matching the backend's short
// token lifetime. Notifications are deliberately excluded.

func loadSession(path string) (Session, bool) {
	if path == "" {
		return Session{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("discarding corrupt session state")
		return Session{}, false
	}
	return sess, true
}

// persistLocked writes the session via temp file + rename so a crash mid-write
// never leaves a torn state file. Failures are logged, not propagated: losing
// persistence must not break an in-memory login.
func (st *Store) persistLocked() {
	if st.persistPath == "" {
		return
	}
	data, err := json.Marshal(st.sess)
	if err != nil {
		log.Error().Err(err).Msg("marshal session state")
		return
	}
	dir := filepath.Dir(st.persistPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("create session state dir")
		return
	}
	tmp, err := os.CreateTemp(dir, "session-*.json")
	if err != nil {
		log.Error().Err(err).Msg("create session temp file")
		return
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		log.Error().Err(err).Msg("write session state")
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		log.Error().Err(err).Msg("close session temp file")
		return
	}
	if err := os.Rename(name, st.persistPath); err != nil {
		_ = os.Remove(name)
		log.Error().Err(err).Str("path", st.persistPath).Msg("replace session state")
	}
}
