package visitor

import "strings"

type UserAgent struct {
	Device  string `json:"device_type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// ParseUserAgent classifies ua by substring matching. Order matters: Edge and
// Opera carry "Chrome", Chrome carries "Safari", iOS carries "Mac OS X".
func ParseUserAgent(ua string) UserAgent {
	l := strings.ToLower(ua)
	return UserAgent{Device: device(l), Browser: browser(l), OS: osName(l)}
}

func device(l string) string {
	switch {
	case strings.Contains(l, "ipad"), strings.Contains(l, "tablet"),
		strings.Contains(l, "android") && !strings.Contains(l, "mobile"):
		return "tablet"
	case strings.Contains(l, "mobi"), strings.Contains(l, "iphone"), strings.Contains(l, "ipod"),
		strings.Contains(l, "android"):
		return "mobile"
	}
	return "desktop"
}

func browser(l string) string {
	switch {
	case strings.Contains(l, "edg/"), strings.Contains(l, "edge/"), strings.Contains(l, "edga/"), strings.Contains(l, "edgios/"):
		return "Edge"
	case strings.Contains(l, "opr/"), strings.Contains(l, "opera"):
		return "Opera"
	case strings.Contains(l, "firefox/"), strings.Contains(l, "fxios/"):
		return "Firefox"
	case strings.Contains(l, "chrome/"), strings.Contains(l, "crios/"):
		return "Chrome"
	case strings.Contains(l, "safari/"):
		return "Safari"
	}
	return "Other"
}

func osName(l string) string {
	switch {
	case strings.Contains(l, "windows"):
		return "Windows"
	case strings.Contains(l, "iphone"), strings.Contains(l, "ipad"), strings.Contains(l, "ipod"):
		return "iOS"
	case strings.Contains(l, "mac os x"), strings.Contains(l, "macintosh"):
		return "macOS"
	case strings.Contains(l, "android"):
		return "Android"
	case strings.Contains(l, "linux"):
		return "Linux"
	}
	return "Other"
}
