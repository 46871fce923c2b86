package tracking

import (
	"net/url"
	"strings"

	"aadinath/api/models"
)

var searchHosts = []string{"google.", "bing.", "yahoo.", "duckduckgo.", "baidu.", "yandex.", "ecosia."}

var socialHosts = []string{
	"facebook.", "fb.", "instagram.", "twitter.", "t.co", "x.com",
	"linkedin.", "lnkd.in", "whatsapp.", "wa.me", "youtube.", "pinterest.", "reddit.",
}

// Attribution is the resolved traffic source of one navigation.
type Attribution struct {
	// Source is the campaign tag, empty when none was ever set.
	Source string
	Type   models.SourceType
	// Store reports whether Source must be written to session storage.
	Store bool
}

// Attribute resolves the source of a navigation. An explicit tag in the query
// wins and is stored for the session; otherwise the stored tag is reused.
// Only when neither exists is the referrer categorized.
func Attribute(queryTag, storedTag, referrer, selfHost string) Attribution {
	if tag := normalizeTag(queryTag); tag != "" {
		return Attribution{Source: tag, Type: models.SourceQR, Store: true}
	}
	if tag := normalizeTag(storedTag); tag != "" {
		return Attribution{Source: tag, Type: models.SourceQR}
	}
	return Attribution{Type: CategorizeReferrer(referrer, selfHost)}
}

// CategorizeReferrer maps a referrer URL to a source category.
func CategorizeReferrer(referrer, selfHost string) models.SourceType {
	if referrer == "" {
		return models.SourceDirect
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return models.SourceDirect
	}

	host := strings.ToLower(u.Hostname())
	if selfHost != "" && sameSite(host, strings.ToLower(selfHost)) {
		return models.SourceDirect
	}

	switch {
	case matchesAny(host, searchHosts):
		return models.SourceOrganic
	case matchesAny(host, socialHosts):
		return models.SourceSocial
	default:
		return models.SourceReferral
	}
}

// normalizeTag treats the literal UNKNOWN placeholder as absent.
func normalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if strings.EqualFold(tag, models.Unknown) {
		return ""
	}
	return tag
}

func sameSite(host, self string) bool {
	if h, _, err := splitHostPort(self); err == nil {
		self = h
	}
	return host == self || strings.TrimPrefix(host, "www.") == strings.TrimPrefix(self, "www.")
}

func splitHostPort(hostport string) (string, string, error) {
	u, err := url.Parse("//" + hostport)
	if err != nil {
		return "", "", err
	}
	return u.Hostname(), u.Port(), nil
}

// matchesAny matches "name." patterns against any label position and full
// domains against the host or its subdomains.
func matchesAny(host string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, ".") {
			if strings.HasPrefix(host, p) || strings.Contains(host, "."+p) {
				return true
			}
			continue
		}
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}
