// Package tracking owns per-client learning sessions: device fingerprinting,
// the session state machine, interaction recording and the registry that
// maps connected clients to their trackers.
package tracking

import (
	"fmt"
	"strings"

	"coursehub-backend/internal/models"
)

const unknown = "Unknown"

// Fingerprint derives a device descriptor from a user-agent string and the
// reported screen size. Unmatched input falls back to "desktop"/"Unknown".
func Fingerprint(userAgent string, width, height int) models.DeviceInfo {
	return models.DeviceInfo{
		UserAgent:        userAgent,
		ScreenResolution: fmt.Sprintf("%dx%d", width, height),
		DeviceType:       deviceClass(userAgent),
		Browser:          browser(userAgent),
		OS:               operatingSystem(userAgent),
	}
}

// Tablets are checked first: iPad and Android tablet UAs also match the
// generic mobile tokens.
func deviceClass(ua string) models.DeviceClass {
	switch {
	case strings.Contains(ua, "iPad"),
		strings.Contains(ua, "Tablet"),
		strings.Contains(ua, "Android") && !strings.Contains(ua, "Mobile"):
		return models.DeviceTablet
	case containsAny(ua, "Mobile", "Android", "iPhone", "iPod"):
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

// Edge and Chrome UAs both carry "Chrome" and "Safari", so the most
// specific token wins.
func browser(ua string) string {
	switch {
	case containsAny(ua, "Edg/", "Edge/", "EdgA/", "EdgiOS/"):
		return "Edge"
	case containsAny(ua, "Chrome/", "CriOS/"):
		return "Chrome"
	case containsAny(ua, "Firefox/", "FxiOS/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return unknown
}

func operatingSystem(ua string) string {
	switch {
	case containsAny(ua, "iPhone", "iPad", "iPod"):
		return "iOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return unknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
