package auth

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"github.com/dropDatabas3/gatehouse/internal/store"
)

const testUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36"

func newTestSessionManager(t *testing.T) (*SessionManager, *fakeClock, Deps) {
	t.Helper()
	clock := newFakeClock()
	deps := testDeps(t, clock)
	return NewSessionManager(deps, 12*time.Hour), clock, deps
}

func TestSession_IssueAndValidate(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	raw, err := m.Issue("admin", time.Hour, testUA, "127.0.0.1:50000", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(raw) != sessionTokenBytes {
		t.Fatalf("raw token length = %d, want %d", len(raw), sessionTokenBytes)
	}
	if !m.Validate(raw) {
		t.Fatal("fresh session must validate")
	}
	if u, ok := m.UsernameFor(raw); !ok || u != "admin" {
		t.Fatalf("UsernameFor = (%q, %v), want (admin, true)", u, ok)
	}
	if m.Validate("bogus") {
		t.Fatal("unknown token must not validate")
	}
}

func TestSession_ZeroLifetimeFallsBackToDefault(t *testing.T) {
	m, clock, _ := newTestSessionManager(t)

	raw, err := m.Issue("admin", 0, testUA, "", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	views := m.List("")
	if len(views) != 1 {
		t.Fatalf("want 1 session, got %d", len(views))
	}
	wantExpiry := clock.Now().Add(12 * time.Hour).Unix()
	if views[0].ExpiresAt != wantExpiry {
		t.Fatalf("expires_at = %d, want default TTL expiry %d", views[0].ExpiresAt, wantExpiry)
	}
	if !m.Validate(raw) {
		t.Fatal("zero lifetime must not mean immediately expired")
	}
}

func TestSession_ExpiryEnforcedOnRead(t *testing.T) {
	m, clock, _ := newTestSessionManager(t)

	raw, _ := m.Issue("admin", time.Hour, testUA, "", false)
	clock.Advance(time.Hour + time.Second)

	if m.Validate(raw) {
		t.Fatal("expired session must not validate")
	}
	// The record is gone, not just rejected.
	if got := m.List(""); len(got) != 0 {
		t.Fatalf("expired session must be unobservable, got %d entries", len(got))
	}
	if m.Validate(raw) {
		t.Fatal("second validate after expiry must also fail")
	}
}

func TestSession_TouchDebounce(t *testing.T) {
	m, clock, deps := newTestSessionManager(t)

	raw, _ := m.Issue("admin", 24*time.Hour, testUA, "", false)
	snapshot := readStateFile(t, deps)

	// Within the window: no state write at all.
	clock.Advance(time.Minute)
	if !m.Validate(raw) {
		t.Fatal("validate failed")
	}
	clock.Advance(time.Minute)
	if !m.Validate(raw) {
		t.Fatal("validate failed")
	}
	if !bytes.Equal(snapshot, readStateFile(t, deps)) {
		t.Fatal("validations inside the touch window must not persist")
	}

	// Past the window: exactly one write updating last_seen.
	clock.Advance(touchWindow)
	if !m.Validate(raw) {
		t.Fatal("validate failed")
	}
	doc := decodeState(t, deps)
	if len(doc.SessionTokens) != 1 {
		t.Fatalf("want 1 persisted session, got %d", len(doc.SessionTokens))
	}
	if doc.SessionTokens[0].LastSeen != clock.Now().Unix() {
		t.Fatalf("last_seen = %d, want %d", doc.SessionTokens[0].LastSeen, clock.Now().Unix())
	}
}

func TestSession_SweepExpired(t *testing.T) {
	m, clock, _ := newTestSessionManager(t)

	m.Issue("admin", time.Hour, testUA, "", false)
	keep, _ := m.Issue("admin", 48*time.Hour, testUA, "", true)

	clock.Advance(2 * time.Hour)
	if !m.SweepExpired() {
		t.Fatal("sweep must report a change")
	}
	if m.SweepExpired() {
		t.Fatal("second sweep has nothing to do")
	}
	if !m.Validate(keep) {
		t.Fatal("unexpired session must survive the sweep")
	}
	if got := m.List(""); len(got) != 1 {
		t.Fatalf("want 1 surviving session, got %d", len(got))
	}
}

func TestSession_ListFilterCaseInsensitive(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	m.Issue("Admin", time.Hour, testUA, "", false)
	m.Issue("other", time.Hour, testUA, "", false)

	if got := m.List("aDmIn"); len(got) != 1 || got[0].Username != "Admin" {
		t.Fatalf("filter must be case-insensitive, got %v", got)
	}
	if got := m.List(""); len(got) != 2 {
		t.Fatalf("empty filter must list all, got %d", len(got))
	}
}

func TestSession_RevokeByHash(t *testing.T) {
	m, _, _ := newTestSessionManager(t)

	raw, _ := m.Issue("admin", time.Hour, testUA, "", false)
	hash := tokens.SHA256Hex(raw)

	if !m.RevokeByHash(hash) {
		t.Fatal("revoke must report removal")
	}
	if m.Validate(raw) {
		t.Fatal("revoked session must not validate")
	}
	if m.RevokeByHash(hash) {
		t.Fatal("second revoke must return false")
	}
}

func TestSession_LoadDropsExpiredAndDerivesLabels(t *testing.T) {
	clock := newFakeClock()
	deps := testDeps(t, clock)
	now := clock.Now()

	// Seed a state document by hand: one live record from an older format
	// (no device label), one already expired.
	err := deps.Store.Update(func(doc *store.Document) {
		doc.SessionTokens = []store.SessionRecord{
			{
				Hash:      "live-hash",
				Username:  "admin",
				CreatedAt: now.Add(-time.Hour).Unix(),
				ExpiresAt: now.Add(time.Hour).Unix(),
				LastSeen:  now.Add(-time.Hour).Unix(),
				UserAgent: testUA,
			},
			{
				Hash:      "dead-hash",
				Username:  "admin",
				CreatedAt: now.Add(-48 * time.Hour).Unix(),
				ExpiresAt: now.Add(-time.Hour).Unix(),
				LastSeen:  now.Add(-47 * time.Hour).Unix(),
			},
		}
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	m := NewSessionManager(deps, 12*time.Hour)
	m.Load()

	views := m.List("")
	if len(views) != 1 {
		t.Fatalf("expired record must be dropped on load, got %d", len(views))
	}
	if views[0].DeviceLabel != "Google Chrome on Windows 10/11" {
		t.Fatalf("device label must be derived on load, got %q", views[0].DeviceLabel)
	}

	// The relabeled set is written back once.
	doc := decodeState(t, deps)
	if len(doc.SessionTokens) != 1 || doc.SessionTokens[0].DeviceLabel == "" {
		t.Fatalf("rewritten state must carry the derived label: %+v", doc.SessionTokens)
	}
}

func TestSession_SaveLoadRoundTrip(t *testing.T) {
	m, _, deps := newTestSessionManager(t)

	raw, _ := m.Issue("admin", 3*time.Hour, testUA, "10.0.0.9:40000", true)

	restarted := NewSessionManager(deps, 12*time.Hour)
	restarted.Load()

	if !restarted.Validate(raw) {
		t.Fatal("session must survive restart")
	}
	before, after := m.List(""), restarted.List("")
	if len(after) != 1 || before[0].ID != after[0].ID || before[0].ExpiresAt != after[0].ExpiresAt {
		t.Fatalf("restart changed the session: %+v vs %+v", before, after)
	}
	if !after[0].RememberMe {
		t.Fatal("remember_me must survive restart")
	}
}

func readStateFile(t *testing.T, deps Deps) []byte {
	t.Helper()
	b, err := os.ReadFile(deps.Store.Path())
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	return b
}

func decodeState(t *testing.T, deps Deps) store.Document {
	t.Helper()
	var doc store.Document
	if err := json.Unmarshal(readStateFile(t, deps), &doc); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return doc
}
