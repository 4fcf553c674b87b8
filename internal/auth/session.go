package auth

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"github.com/dropDatabas3/gatehouse/internal/store"
	"github.com/dropDatabas3/gatehouse/internal/util"
	"go.uber.org/zap"
)

const (
	// sessionTokenBytes is the raw length of a generated session token.
	sessionTokenBytes = 64

	// touchWindow bounds how often an active session's last_seen is written
	// back: two validations inside the window cost at most one persist.
	touchWindow = 5 * time.Minute
)

// session is the in-memory record of an interactive login, keyed externally
// by its token hash.
type session struct {
	username      string
	createdAt     time.Time
	expiresAt     time.Time
	lastSeen      time.Time
	userAgent     string
	remoteAddress string
	deviceLabel   string
	rememberMe    bool
}

// SessionView is the management projection of a session. ID is the token
// hash: a handle for listing/revocation, distinct from the raw token and
// useless for forging one.
type SessionView struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	CreatedAt     int64  `json:"created_at"`
	ExpiresAt     int64  `json:"expires_at"`
	LastSeen      int64  `json:"last_seen"`
	RememberMe    bool   `json:"remember_me"`
	UserAgent     string `json:"user_agent,omitempty"`
	RemoteAddress string `json:"remote_address,omitempty"`
	DeviceLabel   string `json:"device_label,omitempty"`
}

// SessionManager owns the interactive session lifecycle: issue, validate with
// idle-touch, expiry on read, sweeps, and dirty-flag debounced persistence.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*session
	dirty       bool
	lastPersist time.Time

	defaultTTL time.Duration
	deps       Deps
	log        *zap.Logger
}

// NewSessionManager builds a manager with the given default session lifetime.
func NewSessionManager(deps Deps, defaultTTL time.Duration) *SessionManager {
	if defaultTTL <= 0 {
		defaultTTL = 12 * time.Hour
	}
	return &SessionManager{
		sessions:   make(map[string]*session),
		defaultTTL: defaultTTL,
		deps:       deps.withDefaults(),
		log:        logger.Named("sessions"),
	}
}

// Issue mints a session token for username with the given lifetime (the
// configured default when lifetime <= 0), sweeps expired sessions while it is
// at it, and persists. Returns the raw token; only its hash is kept.
func (m *SessionManager) Issue(username string, lifetime time.Duration, userAgent, remoteAddr string, rememberMe bool) (string, error) {
	raw, err := tokens.Generate(m.deps.Rand, sessionTokenBytes)
	if err != nil {
		return "", err
	}
	if lifetime <= 0 {
		lifetime = m.defaultTTL
	}
	now := m.deps.Clock()

	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[tokens.SHA256Hex(raw)] = &session{
		username:      username,
		createdAt:     now,
		expiresAt:     now.Add(lifetime),
		lastSeen:      now,
		userAgent:     userAgent,
		remoteAddress: remoteAddr,
		deviceLabel:   DeviceLabel(userAgent, remoteAddr),
		rememberMe:    rememberMe,
	}
	m.dirty = true
	m.gaugeLocked()
	m.mu.Unlock()

	m.Save()
	m.log.Info("session issued", logger.Username(username), zap.Duration("lifetime", lifetime))
	return raw, nil
}

// Validate reports whether the raw token maps to a live session. Expiry is
// enforced here, not only by sweeps: a dead record is removed on sight.
func (m *SessionManager) Validate(raw string) bool {
	_, ok := m.UsernameFor(raw)
	return ok
}

// UsernameFor resolves the identity behind a raw session token, with the same
// expiry and idle-touch semantics as Validate.
func (m *SessionManager) UsernameFor(raw string) (string, bool) {
	hash := tokens.SHA256Hex(raw)
	now := m.deps.Clock()

	m.mu.Lock()
	s, ok := m.sessions[hash]
	if !ok {
		m.mu.Unlock()
		return "", false
	}
	if now.After(s.expiresAt) {
		delete(m.sessions, hash)
		m.dirty = true
		m.gaugeLocked()
		m.mu.Unlock()
		m.Save()
		return "", false
	}
	persist := false
	if now.Sub(s.lastSeen) >= touchWindow {
		s.lastSeen = now
		m.dirty = true
		persist = true
	}
	username := s.username
	m.mu.Unlock()

	if persist {
		m.Save()
	}
	return username, true
}

// Revoke deletes the session for a raw token, if present.
func (m *SessionManager) Revoke(raw string) {
	m.RevokeByHash(tokens.SHA256Hex(raw))
}

// RevokeByHash deletes a session by its management handle. Returns whether a
// session was actually removed.
func (m *SessionManager) RevokeByHash(hash string) bool {
	m.mu.Lock()
	_, ok := m.sessions[hash]
	if ok {
		delete(m.sessions, hash)
		m.dirty = true
		m.gaugeLocked()
	}
	m.mu.Unlock()

	if ok {
		m.Save()
		m.log.Info("session revoked", zap.String("hash", util.MaskHash(hash)))
	}
	return ok
}

// SweepExpired removes every expired session and persists if anything went.
// Returns whether the table changed.
func (m *SessionManager) SweepExpired() bool {
	now := m.deps.Clock()

	m.mu.Lock()
	changed := m.sweepLocked(now)
	m.mu.Unlock()

	if changed {
		m.Save()
	}
	return changed
}

// List returns the sessions for display, filtered case-insensitively by
// username (empty filter = all), newest first.
func (m *SessionManager) List(usernameFilter string) []SessionView {
	filter := strings.ToLower(strings.TrimSpace(usernameFilter))
	now := m.deps.Clock()

	m.mu.Lock()
	out := make([]SessionView, 0, len(m.sessions))
	for hash, s := range m.sessions {
		if now.After(s.expiresAt) {
			continue
		}
		if filter != "" && strings.ToLower(s.username) != filter {
			continue
		}
		out = append(out, SessionView{
			ID:            hash,
			Username:      s.username,
			CreatedAt:     s.createdAt.Unix(),
			ExpiresAt:     s.expiresAt.Unix(),
			LastSeen:      s.lastSeen.Unix(),
			RememberMe:    s.rememberMe,
			UserAgent:     s.userAgent,
			RemoteAddress: s.remoteAddress,
			DeviceLabel:   s.deviceLabel,
		})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Load clears in-memory state and rebuilds it from the durable store,
// dropping already-expired records. Records written by an older format
// without a device label get one derived now and the set is marked dirty so
// it is rewritten once.
func (m *SessionManager) Load() {
	doc := m.deps.Store.Read()
	now := m.deps.Clock()

	table := make(map[string]*session, len(doc.SessionTokens))
	relabeled := false
	for _, rec := range doc.SessionTokens {
		if rec.Hash == "" || now.After(time.Unix(rec.ExpiresAt, 0)) {
			continue
		}
		s := &session{
			username:      rec.Username,
			createdAt:     time.Unix(rec.CreatedAt, 0),
			expiresAt:     time.Unix(rec.ExpiresAt, 0),
			lastSeen:      time.Unix(rec.LastSeen, 0),
			userAgent:     rec.UserAgent,
			remoteAddress: rec.RemoteAddress,
			deviceLabel:   rec.DeviceLabel,
			rememberMe:    rec.RememberMe,
		}
		if s.deviceLabel == "" {
			s.deviceLabel = DeviceLabel(s.userAgent, s.remoteAddress)
			relabeled = true
		}
		table[rec.Hash] = s
	}

	m.mu.Lock()
	m.sessions = table
	m.dirty = relabeled
	m.gaugeLocked()
	m.mu.Unlock()
	m.log.Info("sessions loaded", zap.Int("count", len(table)))

	if relabeled {
		m.Save()
	}
}

// Save flushes the session table if and only if the dirty flag is set.
// Snapshot under the map lock, write under the store lock, never both.
// On failure the flag is re-armed so the next mutating call retries.
func (m *SessionManager) Save() {
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return
	}
	m.dirty = false
	recs := make([]store.SessionRecord, 0, len(m.sessions))
	for hash, s := range m.sessions {
		recs = append(recs, store.SessionRecord{
			Hash:          hash,
			Username:      s.username,
			CreatedAt:     s.createdAt.Unix(),
			ExpiresAt:     s.expiresAt.Unix(),
			LastSeen:      s.lastSeen.Unix(),
			RememberMe:    s.rememberMe,
			UserAgent:     s.userAgent,
			RemoteAddress: s.remoteAddress,
			DeviceLabel:   s.deviceLabel,
		})
	}
	m.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].Hash < recs[j].Hash })

	err := m.deps.Store.Update(func(doc *store.Document) {
		doc.SessionTokens = recs
	})

	m.mu.Lock()
	if err != nil {
		m.dirty = true
	} else {
		m.lastPersist = m.deps.Clock()
	}
	m.mu.Unlock()

	if err != nil {
		metrics.StateFlushes.WithLabelValues("error").Inc()
		m.log.Error("session persist failed", logger.Err(err))
		return
	}
	metrics.StateFlushes.WithLabelValues("ok").Inc()
}

// sweepLocked removes expired sessions. Caller holds the map lock.
func (m *SessionManager) sweepLocked(now time.Time) bool {
	changed := false
	for hash, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, hash)
			changed = true
		}
	}
	if changed {
		m.dirty = true
		m.gaugeLocked()
	}
	return changed
}

func (m *SessionManager) gaugeLocked() {
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}
