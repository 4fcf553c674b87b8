package auth

import (
	"net/url"
	"testing"
)

func TestParseCredential_Schemes(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   Scheme
		token  string
	}{
		{"bearer", "Bearer abc123", SchemeBearer, "abc123"},
		{"bearer lowercase", "bearer abc123", SchemeBearer, "abc123"},
		{"session", "Session xyz", SchemeSession, "xyz"},
		{"session padded", "  Session   xyz  ", SchemeSession, "xyz"},
		{"unknown", "Digest something", SchemeUnknown, ""},
		{"bare token", "justatoken", SchemeUnknown, ""},
		{"empty", "", SchemeNone, ""},
	}
	for _, c := range cases {
		got := ParseCredential(c.header, "", "gh_session")
		if got.Scheme != c.want {
			t.Fatalf("%s: scheme = %v, want %v", c.name, got.Scheme, c.want)
		}
		if got.Token != c.token {
			t.Fatalf("%s: token = %q, want %q", c.name, got.Token, c.token)
		}
	}
}

func TestParseCredential_Basic(t *testing.T) {
	// base64("user:pa:ss"): the password may itself contain colons.
	got := ParseCredential("Basic dXNlcjpwYTpzcw==", "", "")
	if got.Scheme != SchemeBasic || got.User != "user" || got.Pass != "pa:ss" {
		t.Fatalf("got %+v", got)
	}

	if got := ParseCredential("Basic %%%", "", ""); got.Scheme != SchemeUnknown {
		t.Fatalf("bad base64 must parse as unknown, got %+v", got)
	}
	// base64("nocolon")
	if got := ParseCredential("Basic bm9jb2xvbg==", "", ""); got.Scheme != SchemeUnknown {
		t.Fatalf("missing colon must parse as unknown, got %+v", got)
	}
}

func TestParseCredential_CookieFallback(t *testing.T) {
	tok := "raw token with specials /+="
	cookie := "other=1; gh_session=" + url.QueryEscape(tok) + "; more=2"

	got := ParseCredential("", cookie, "gh_session")
	if got.Scheme != SchemeSession || got.Token != tok {
		t.Fatalf("got %+v", got)
	}

	// The Authorization header wins over the cookie.
	got = ParseCredential("Bearer abc", cookie, "gh_session")
	if got.Scheme != SchemeBearer {
		t.Fatalf("header must take precedence, got %+v", got)
	}

	if got := ParseCredential("", "unrelated=1", "gh_session"); got.Scheme != SchemeNone {
		t.Fatalf("missing cookie must mean no credential, got %+v", got)
	}
}

func TestClassifyOrigin(t *testing.T) {
	cases := []struct {
		remote string
		want   Tier
	}{
		{"127.0.0.1:1", TierPC},
		{"[::1]:1", TierPC},
		{"192.168.0.10:1", TierLAN},
		{"10.0.0.1:1", TierLAN},
		{"172.16.5.5:1", TierLAN},
		{"169.254.1.1:1", TierLAN},
		{"8.8.8.8:1", TierWAN},
		{"2001:db8::1", TierWAN},
		{"garbage", TierWAN},
	}
	for _, c := range cases {
		if got := ClassifyOrigin(c.remote); got != c.want {
			t.Fatalf("ClassifyOrigin(%q) = %v, want %v", c.remote, got, c.want)
		}
	}
}

func TestParseTier(t *testing.T) {
	if ParseTier("pc") != TierPC || ParseTier("PC") != TierPC {
		t.Fatal("pc")
	}
	if ParseTier("wan") != TierWAN {
		t.Fatal("wan")
	}
	if ParseTier("lan") != TierLAN || ParseTier("") != TierLAN || ParseTier("bogus") != TierLAN {
		t.Fatal("lan is the conservative default")
	}
}
