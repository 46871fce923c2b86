// Package geo resolves client IP addresses to best-effort locations. Lookups
// never fail: anything that cannot be resolved comes back as Unknown.
package geo

import (
	"context"
	"net"

	"aadinath/api/models"
)

// Locator resolves an IP address to a location.
type Locator interface {
	Locate(ctx context.Context, ip string) models.Location
}

var privateCIDRs []*net.IPNet

func init() {
	privateBlocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"100.64.0.0/10", // carrier-grade NAT
		"fc00::/7",
		"fe80::/10",
	}

	for _, block := range privateBlocks {
		_, cidr, err := net.ParseCIDR(block)
		if err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Local is returned for private and loopback addresses.
var Local = models.Location{City: "Local", Country: "Local Network"}

// UnknownLocation is the degraded result of a failed lookup.
func UnknownLocation() models.Location {
	return models.Location{City: models.Unknown, Country: models.Unknown}
}

// IsLocal reports whether ip is loopback or in a private range.
func IsLocal(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// classify handles the cases every locator answers the same way. ok is false
// when the address still needs a real lookup.
func classify(ip string) (models.Location, net.IP, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return UnknownLocation(), nil, true
	}
	if IsLocal(parsed) {
		return Local, parsed, true
	}
	return models.Location{}, parsed, false
}

// Chain asks each locator in turn and returns the first known location.
type Chain []Locator

func (c Chain) Locate(ctx context.Context, ip string) models.Location {
	if loc, _, done := classify(ip); done {
		return loc
	}
	for _, l := range c {
		if l == nil {
			continue
		}
		if loc := l.Locate(ctx, ip); loc.Known() {
			return loc
		}
	}
	return UnknownLocation()
}
