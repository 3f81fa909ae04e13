package models

type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceTablet  DeviceClass = "tablet"
	DeviceMobile  DeviceClass = "mobile"
)

// DeviceInfo describes the client a session was opened from.
type DeviceInfo struct {
	UserAgent        string      `json:"user_agent"`
	ScreenResolution string      `json:"screen_resolution"`
	DeviceType       DeviceClass `json:"device_type"`
	Browser          string      `json:"browser"`
	OS               string      `json:"os"`
}
