package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coursehub-backend/internal/models"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		class   models.DeviceClass
		browser string
		os      string
	}{
		{
			name:    "chrome on windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			class:   models.DeviceDesktop,
			browser: "Chrome",
			os:      "Windows",
		},
		{
			name:    "edge on windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			class:   models.DeviceDesktop,
			browser: "Edge",
			os:      "Windows",
		},
		{
			name:    "safari on iphone",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
			class:   models.DeviceMobile,
			browser: "Safari",
			os:      "iOS",
		},
		{
			name:    "safari on ipad",
			ua:      "Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
			class:   models.DeviceTablet,
			browser: "Safari",
			os:      "iOS",
		},
		{
			name:    "chrome on android phone",
			ua:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			class:   models.DeviceMobile,
			browser: "Chrome",
			os:      "Android",
		},
		{
			name:    "android tablet",
			ua:      "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			class:   models.DeviceTablet,
			browser: "Chrome",
			os:      "Android",
		},
		{
			name:    "firefox on linux",
			ua:      "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			class:   models.DeviceDesktop,
			browser: "Firefox",
			os:      "Linux",
		},
		{
			name:    "safari on mac",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			class:   models.DeviceDesktop,
			browser: "Safari",
			os:      "macOS",
		},
		{
			name:    "empty",
			ua:      "",
			class:   models.DeviceDesktop,
			browser: "Unknown",
			os:      "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.ua, 1920, 1080)
			assert.Equal(t, tt.class, got.DeviceType)
			assert.Equal(t, tt.browser, got.Browser)
			assert.Equal(t, tt.os, got.OS)
			assert.Equal(t, "1920x1080", got.ScreenResolution)
			assert.Equal(t, tt.ua, got.UserAgent)
		})
	}
}
