package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *File {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "state.json"))
}

func TestRead_MissingFile(t *testing.T) {
	f := tempStore(t)
	doc := f.Read()
	if doc.ServerID != "" || len(doc.APITokens) != 0 || len(doc.SessionTokens) != 0 {
		t.Fatalf("missing file must read as empty, got %+v", doc)
	}
}

func TestRead_CorruptFile(t *testing.T) {
	f := tempStore(t)
	if err := os.WriteFile(f.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := f.Read()
	if len(doc.APITokens) != 0 || len(doc.SessionTokens) != 0 {
		t.Fatalf("corrupt file must read as empty, got %+v", doc)
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	f := tempStore(t)
	err := f.Update(func(doc *Document) {
		doc.APITokens = append(doc.APITokens, APITokenRecord{
			Hash:      "abcd",
			Username:  "admin",
			CreatedAt: 1000,
			Scopes:    []ScopeEntry{{Path: "/api/pin", Methods: []string{"POST"}}},
		})
		doc.SessionTokens = append(doc.SessionTokens, SessionRecord{
			Hash:      "ef01",
			Username:  "admin",
			CreatedAt: 1000,
			ExpiresAt: 2000,
			LastSeen:  1000,
		})
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	doc := f.Read()
	if len(doc.APITokens) != 1 || doc.APITokens[0].Hash != "abcd" {
		t.Fatalf("api tokens did not survive the round trip: %+v", doc.APITokens)
	}
	if len(doc.SessionTokens) != 1 || doc.SessionTokens[0].ExpiresAt != 2000 {
		t.Fatalf("sessions did not survive the round trip: %+v", doc.SessionTokens)
	}
}

func TestUpdate_StampsServerID(t *testing.T) {
	f := tempStore(t)
	if err := f.Update(func(*Document) {}); err != nil {
		t.Fatal(err)
	}
	first := f.Read().ServerID
	if first == "" {
		t.Fatal("server_id must be stamped on first persist")
	}

	if err := f.Update(func(doc *Document) { doc.APITokens = nil }); err != nil {
		t.Fatal(err)
	}
	if got := f.Read().ServerID; got != first {
		t.Fatalf("server_id changed across writes: %q then %q", first, got)
	}
}

func TestUpdate_WritesValidIndentedJSON(t *testing.T) {
	f := tempStore(t)
	if err := f.Update(func(*Document) {}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("on-disk document is not valid JSON: %v", err)
	}
	// The credential keys are always present, even when empty, so external
	// tooling can rely on the document shape.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"api_tokens", "session_tokens"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("key %q missing from document", key)
		}
	}
}
