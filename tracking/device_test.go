package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"aadinath/api/models"
)

const (
	uaChromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIPhone        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1"
	uaAndroid       = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaIPad          = "Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/604.1"
)

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want models.DeviceType
	}{
		{"desktop chrome", uaChromeWindows, models.DeviceDesktop},
		{"iphone", uaIPhone, models.DeviceMobile},
		{"android", uaAndroid, models.DeviceMobile},
		{"upper case token", "SOMETHING ANDROID", models.DeviceMobile},
		{"ipad is not distinguished at capture", uaIPad, models.DeviceDesktop},
		{"empty", "", models.DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDevice(tt.ua))
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	chrome := ParseUserAgent(uaChromeWindows)
	assert.True(t, strings.HasPrefix(chrome.Browser, "Chrome"), chrome.Browser)
	assert.True(t, strings.HasPrefix(chrome.OS, "Windows"), chrome.OS)
	assert.Equal(t, models.DeviceDesktop, chrome.DeviceType)
	assert.Equal(t, uaChromeWindows, chrome.RawUserAgent)

	assert.Equal(t, models.DeviceMobile, ParseUserAgent(uaIPhone).DeviceType)
	assert.Equal(t, models.DeviceTablet, ParseUserAgent(uaIPad).DeviceType)

	empty := ParseUserAgent("")
	assert.Equal(t, models.Unknown, empty.Browser)
	assert.Equal(t, models.Unknown, empty.OS)
	assert.Equal(t, models.DeviceDesktop, empty.DeviceType)
}

func TestSimplifiedUserAgent(t *testing.T) {
	assert.Equal(t, "Chrome/Windows", SimplifiedUserAgent(uaChromeWindows))
	assert.Equal(t, "Unknown/Unknown", SimplifiedUserAgent(""))
}
