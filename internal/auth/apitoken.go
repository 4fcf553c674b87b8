package auth

import (
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/gatehouse/internal/metrics"
	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatehouse/internal/security/token"
	"github.com/dropDatabas3/gatehouse/internal/store"
	"github.com/dropDatabas3/gatehouse/internal/util"
	"go.uber.org/zap"
)

// apiTokenBytes is the raw length of a generated API token.
const apiTokenBytes = 32

// apiToken is the in-memory record of a long-lived scoped credential,
// keyed externally by its hash. Scopes are immutable after creation.
type apiToken struct {
	username  string
	createdAt time.Time
	scopes    []ScopeRule
}

// APITokenView is the listable projection of an API token. Never carries the
// raw token; that is returned exactly once, at creation.
type APITokenView struct {
	Hash      string             `json:"hash"`
	Username  string             `json:"username"`
	CreatedAt int64              `json:"created_at"`
	Scopes    []store.ScopeEntry `json:"scopes"`
}

// APITokenManager issues, authenticates, lists and revokes long-lived scoped
// tokens for automation. The in-memory table is authoritative; the durable
// store is a projection rebuilt only at startup.
type APITokenManager struct {
	mu     sync.RWMutex
	tokens map[string]apiToken

	deps    Deps
	matcher *RegexMatcher
	log     *zap.Logger
}

// NewAPITokenManager builds a manager around the shared deps.
func NewAPITokenManager(deps Deps) *APITokenManager {
	return &APITokenManager{
		tokens:  make(map[string]apiToken),
		deps:    deps.withDefaults(),
		matcher: NewRegexMatcher(),
		log:     logger.Named("apitokens"),
	}
}

// Create validates the scope spec (all-or-nothing), mints a random raw token,
// stores its record keyed by hash and persists the table. The raw token is
// returned exactly once and is not retrievable afterwards.
func (m *APITokenManager) Create(specs []ScopeSpec, owner string) (string, error) {
	rules, err := parseScopes(specs, m.matcher)
	if err != nil {
		return "", err
	}
	raw, err := tokens.Generate(m.deps.Rand, apiTokenBytes)
	if err != nil {
		return "", err
	}
	hash := tokens.SHA256Hex(raw)

	m.mu.Lock()
	m.tokens[hash] = apiToken{
		username:  owner,
		createdAt: m.deps.Clock(),
		scopes:    rules,
	}
	m.mu.Unlock()

	m.Save()
	m.log.Info("api token created", logger.Username(owner), zap.Int("scopes", len(rules)))
	return raw, nil
}

// Authenticate hashes the candidate token and checks whether any of its
// scopes covers (path, method). Unknown token and wrong scope both come back
// as a plain false; callers get no oracle for which one it was.
func (m *APITokenManager) Authenticate(raw, path, method string) bool {
	hash := tokens.SHA256Hex(raw)

	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[hash]
	if !ok {
		return false
	}
	for _, s := range t.scopes {
		if s.AllowsMethod(method) && m.matcher.Matches(s.Path, path) {
			return true
		}
	}
	return false
}

// List returns the token table for display, sorted by creation time.
func (m *APITokenManager) List() []APITokenView {
	m.mu.RLock()
	out := make([]APITokenView, 0, len(m.tokens))
	for hash, t := range m.tokens {
		out = append(out, APITokenView{
			Hash:      hash,
			Username:  t.username,
			CreatedAt: t.createdAt.Unix(),
			Scopes:    scopeEntries(t.scopes),
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Hash < out[j].Hash
	})
	return out
}

// Revoke removes the token with the given hash and persists. Idempotent:
// revoking an unknown hash returns false, not an error.
func (m *APITokenManager) Revoke(hash string) bool {
	m.mu.Lock()
	_, ok := m.tokens[hash]
	if ok {
		delete(m.tokens, hash)
	}
	m.mu.Unlock()

	if ok {
		m.Save()
		m.log.Info("api token revoked", zap.String("hash", util.MaskHash(hash)))
	}
	return ok
}

// Load rebuilds the in-memory table from the durable store. A missing or
// corrupt store means no tokens; records with no usable scope are dropped.
func (m *APITokenManager) Load() {
	doc := m.deps.Store.Read()

	table := make(map[string]apiToken, len(doc.APITokens))
	for _, rec := range doc.APITokens {
		if rec.Hash == "" || len(rec.Scopes) == 0 {
			continue
		}
		specs := make([]ScopeSpec, 0, len(rec.Scopes))
		for _, s := range rec.Scopes {
			specs = append(specs, ScopeSpec{Path: s.Path, Methods: s.Methods})
		}
		rules, err := parseScopes(specs, m.matcher)
		if err != nil {
			m.log.Warn("dropping api token with bad scopes", zap.String("hash", util.MaskHash(rec.Hash)))
			continue
		}
		table[rec.Hash] = apiToken{
			username:  rec.Username,
			createdAt: time.Unix(rec.CreatedAt, 0),
			scopes:    rules,
		}
	}

	m.mu.Lock()
	m.tokens = table
	m.mu.Unlock()
	m.log.Info("api tokens loaded", zap.Int("count", len(table)))
}

// Save flushes the full table to the durable store. Snapshot under the map
// lock, write under the store lock; never both at once. Write failures are
// logged and swallowed (fail-safe): the in-memory table stays authoritative.
func (m *APITokenManager) Save() {
	m.mu.RLock()
	recs := make([]store.APITokenRecord, 0, len(m.tokens))
	for hash, t := range m.tokens {
		recs = append(recs, store.APITokenRecord{
			Hash:      hash,
			Username:  t.username,
			CreatedAt: t.createdAt.Unix(),
			Scopes:    scopeEntries(t.scopes),
		})
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].Hash < recs[j].Hash })

	err := m.deps.Store.Update(func(doc *store.Document) {
		doc.APITokens = recs
	})
	if err != nil {
		metrics.StateFlushes.WithLabelValues("error").Inc()
		m.log.Error("api token persist failed", logger.Err(err))
		return
	}
	metrics.StateFlushes.WithLabelValues("ok").Inc()
}

func scopeEntries(rules []ScopeRule) []store.ScopeEntry {
	out := make([]store.ScopeEntry, 0, len(rules))
	for _, r := range rules {
		methods := make([]string, 0, len(r.Methods))
		for m := range r.Methods {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		out = append(out, store.ScopeEntry{Path: r.Path, Methods: methods})
	}
	return out
}
