package sptrack

import "strings"

// UAInfo is the coarse classification of a raw user-agent string.
type UAInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

type uaRule struct {
	token string
	name  string
}

// Ordered substring rules, first match wins. Order matters: Edge and Opera
// user agents also contain "Chrome", and Chrome ones contain "Safari", so
// the more specific tokens come first.
var browserRules = []uaRule{
	{"Firefox", "Firefox"},
	{"Edg", "Edge"},
	{"Chrome", "Chrome"},
	{"Safari", "Safari"},
	{"Opera", "Opera"},
	{"OPR", "Opera"},
}

var osRules = []uaRule{
	{"Windows", "Windows"},
	{"Mac OS", "macOS"},
	{"Linux", "Linux"},
	{"Android", "Android"},
	{"iOS", "iOS"},
	{"iPhone", "iOS"},
	{"iPad", "iOS"},
}

// ParseUserAgent classifies a user-agent string with plain substring
// matching. Deliberately crude: good enough for dashboard breakdowns, no
// version extraction.
func ParseUserAgent(userAgent string) UAInfo {
	info := UAInfo{
		Browser:    "Unknown",
		OS:         "Unknown",
		DeviceType: "desktop",
	}

	for _, rule := range browserRules {
		if strings.Contains(userAgent, rule.token) {
			info.Browser = rule.name
			break
		}
	}

	for _, rule := range osRules {
		if strings.Contains(userAgent, rule.token) {
			info.OS = rule.name
			break
		}
	}

	if strings.Contains(userAgent, "Mobile") || strings.Contains(userAgent, "Android") {
		info.DeviceType = "mobile"
	} else if strings.Contains(userAgent, "Tablet") || strings.Contains(userAgent, "iPad") {
		info.DeviceType = "tablet"
	}

	return info
}
