package tracking

import (
	"strings"

	"github.com/mileusna/useragent"

	"aadinath/api/models"
)

// mobileTokens mark a user agent as mobile at capture time.
var mobileTokens = []string{"mobile", "android", "iphone"}

// ClassifyDevice is the capture-time classification: mobile or desktop.
func ClassifyDevice(ua string) models.DeviceType {
	lower := strings.ToLower(ua)
	for _, token := range mobileTokens {
		if strings.Contains(lower, token) {
			return models.DeviceMobile
		}
	}
	return models.DeviceDesktop
}

// ParseUserAgent extracts browser, OS and device type for display. Unlike
// ClassifyDevice it distinguishes tablets.
func ParseUserAgent(uaString string) models.ParsedUserAgent {
	ua := useragent.Parse(uaString)

	result := models.ParsedUserAgent{
		Browser:      ua.Name,
		OS:           ua.OS,
		RawUserAgent: uaString,
	}

	if result.Browser == "" {
		result.Browser = models.Unknown
	} else if major := majorVersion(ua.Version); major != "" {
		result.Browser += " " + major
	}
	if result.OS == "" {
		result.OS = models.Unknown
	} else if ua.OSVersion != "" {
		result.OS += " " + ua.OSVersion
	}

	switch {
	case ua.Tablet:
		result.DeviceType = models.DeviceTablet
	case ua.Mobile:
		result.DeviceType = models.DeviceMobile
	default:
		result.DeviceType = models.DeviceDesktop
	}

	return result
}

// SimplifiedUserAgent renders "Browser/OS", e.g. "Chrome/Windows".
func SimplifiedUserAgent(uaString string) string {
	parsed := ParseUserAgent(uaString)
	return firstWord(parsed.Browser) + "/" + firstWord(parsed.OS)
}

func majorVersion(version string) string {
	major, _, _ := strings.Cut(version, ".")
	return major
}

func firstWord(s string) string {
	word, _, _ := strings.Cut(s, " ")
	return word
}
