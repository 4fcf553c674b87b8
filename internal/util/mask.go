package util

// MaskHash shortens a credential hash for log output: enough to correlate,
// not enough to paste anywhere useful.
func MaskHash(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "…"
	}
	return s[:8] + "…" + s[len(s)-4:]
}
