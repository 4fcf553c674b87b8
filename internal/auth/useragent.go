package auth

import "strings"

// maxRawLabel caps how much of an unrecognized user-agent string ends up in a
// device label.
const maxRawLabel = 80

// DeviceLabel derives a human-readable device name from a User-Agent header.
// Best-effort browser/OS sniffing ("Google Chrome on Windows 10/11"); when
// nothing is recognized it falls back to the remote address, then to the
// truncated raw user-agent, then to "Unknown device".
func DeviceLabel(userAgent, remoteAddr string) string {
	ua := strings.TrimSpace(userAgent)
	browser := sniffBrowser(ua)
	os := sniffOS(ua)

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	}
	if remoteAddr != "" {
		return remoteAddr
	}
	if ua != "" {
		if len(ua) > maxRawLabel {
			return ua[:maxRawLabel] + "…"
		}
		return ua
	}
	return "Unknown device"
}

func sniffBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		return "Microsoft Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Chrome/"):
		return "Google Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Mozilla Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return ""
}

func sniffOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows NT 10.0"):
		// NT 10.0 covers both; the UA string cannot tell them apart.
		return "Windows 10/11"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "CrOS"):
		return "ChromeOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return ""
}
