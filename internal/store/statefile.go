// Package store persists the service's credential state as a single JSON
// document on disk. Reads tolerate a missing or corrupt file (empty state);
// writes go through a read-modify-write cycle under the store lock and land
// atomically, so a concurrent reader never observes a torn document.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/dropDatabas3/gatehouse/internal/observability/logger"
	"github.com/dropDatabas3/gatehouse/internal/util/atomicwrite"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document is the root of the durable state. Both credential managers project
// into their own section; nothing else owns these keys.
type Document struct {
	// ServerID is stamped on first persist and never changes afterwards.
	ServerID      string           `json:"server_id,omitempty"`
	APITokens     []APITokenRecord `json:"api_tokens"`
	SessionTokens []SessionRecord  `json:"session_tokens"`
}

// APITokenRecord is the wire shape of a long-lived scoped token.
// Only the hash is stored, never the raw token.
type APITokenRecord struct {
	Hash      string       `json:"hash"`
	Username  string       `json:"username"`
	CreatedAt int64        `json:"created_at"` // epoch seconds
	Scopes    []ScopeEntry `json:"scopes"`
}

// ScopeEntry is one (path pattern, methods) pair of an API token.
type ScopeEntry struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// SessionRecord is the wire shape of an interactive session token.
type SessionRecord struct {
	Hash          string `json:"hash"`
	Username      string `json:"username"`
	CreatedAt     int64  `json:"created_at"`
	ExpiresAt     int64  `json:"expires_at"`
	LastSeen      int64  `json:"last_seen"`
	RememberMe    bool   `json:"remember_me"`
	UserAgent     string `json:"user_agent,omitempty"`
	RemoteAddress string `json:"remote_address,omitempty"`
	DeviceLabel   string `json:"device_label,omitempty"`
}

// File is a handle on the state document. The mutex is the cross-subsystem
// store lock from the concurrency model: every read-modify-write against the
// backing file goes through it. Managers must never call in here while
// holding their own map lock.
type File struct {
	path string
	mu   sync.Mutex
	log  *zap.Logger
}

// Open returns a handle for the document at path. The file need not exist.
func Open(path string) *File {
	return &File{path: filepath.Clean(path), log: logger.Named("store")}
}

// Path returns the backing file location.
func (f *File) Path() string { return f.path }

// Read loads the current document under the store lock. A missing file yields
// an empty document; a corrupt one is logged and also yields empty state
// (fail-safe: credentials are rebuilt by the operator, not by crashing).
func (f *File) Read() *Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked()
}

// Update runs fn against the current document and writes the result back
// atomically, all under the store lock.
func (f *File) Update(fn func(*Document)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := f.readLocked()
	fn(doc)
	if doc.ServerID == "" {
		doc.ServerID = uuid.NewString()
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicwrite.AtomicWriteFile(f.path, b, 0o600); err != nil {
		f.log.Error("state write failed", zap.String("path", f.path), logger.Err(err))
		return err
	}
	return nil
}

func (f *File) readLocked() *Document {
	doc := &Document{}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn("state read failed, starting empty", zap.String("path", f.path), logger.Err(err))
		}
		return doc
	}
	if err := json.Unmarshal(b, doc); err != nil {
		f.log.Warn("state file corrupt, starting empty", zap.String("path", f.path), logger.Err(err))
		return &Document{}
	}
	return doc
}
