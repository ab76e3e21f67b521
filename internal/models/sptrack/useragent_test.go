package sptrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		browser    string
		os         string
		deviceType string
	}{
		{
			name:       "chrome on windows",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser:    "Chrome",
			os:         "Windows",
			deviceType: "desktop",
		},
		{
			name:       "safari on mac",
			ua:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			browser:    "Safari",
			os:         "macOS",
			deviceType: "desktop",
		},
		{
			name:       "edge beats chrome",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			browser:    "Edge",
			os:         "Windows",
			deviceType: "desktop",
		},
		{
			name:       "firefox on linux",
			ua:         "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			browser:    "Firefox",
			os:         "Linux",
			deviceType: "desktop",
		},
		{
			name:       "android mobile",
			ua:         "Mozilla/5.0 (Android 14; Mobile; rv:121.0) Gecko/121.0 Firefox/121.0",
			browser:    "Firefox",
			os:         "Android",
			deviceType: "mobile",
		},
		{
			name:       "ipad tablet",
			ua:         "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/604.1",
			browser:    "Safari",
			os:         "macOS",
			deviceType: "tablet",
		},
		{
			name:       "opera",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 OPR/106.0.0.0",
			browser:    "Chrome",
			os:         "Windows",
			deviceType: "desktop",
		},
		{
			name:       "unknown",
			ua:         "curl/8.0.1",
			browser:    "Unknown",
			os:         "Unknown",
			deviceType: "desktop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseUserAgent(tt.ua)
			assert.Equal(t, tt.browser, info.Browser)
			assert.Equal(t, tt.os, info.OS)
			assert.Equal(t, tt.deviceType, info.DeviceType)
		})
	}
}
