package analytics

import (
	"sort"
	"time"

	"aadinath/api/models"
)

// ConversionRate is conversions / base × 100, and 0 when base is 0.
func ConversionRate(conversions, base int) float64 {
	if base <= 0 {
		return 0
	}
	return float64(conversions) / float64(base) * 100
}

// Totals assembles the headline dashboard numbers from raw counts.
func Totals(scans, leads, pageViews int) models.AnalyticsMetrics {
	return models.AnalyticsMetrics{
		TotalScans:     scans,
		TotalLeads:     leads,
		TotalPageViews: pageViews,
		ConversionRate: ConversionRate(leads, scans),
	}
}

// TrafficByPage counts page views per resolved path and keeps the latest
// visit time. Ordered by visits descending, then path.
func TrafficByPage(views []models.PageViewEvent) []models.PageMetrics {
	type agg struct {
		count int
		last  time.Time
	}
	pages := make(map[string]*agg)
	for _, v := range views {
		p := resolvePage(v.CurrentPage)
		a, ok := pages[p]
		if !ok {
			a = &agg{}
			pages[p] = a
		}
		a.count++
		if v.Timestamp.After(a.last) {
			a.last = v.Timestamp
		}
	}

	out := make([]models.PageMetrics, 0, len(pages))
	for p, a := range pages {
		out = append(out, models.PageMetrics{Page: p, Visits: a.count, LastVisited: a.last})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].Page < out[j].Page
	})
	return out
}

// TopLocations groups scans by (city, country) and returns the limit most
// frequent, descending by count. A non-positive limit returns all.
func TopLocations(scans []models.ScanEvent, limit int) []models.LocationMetrics {
	type key struct{ city, country string }
	counts := make(map[key]int)
	for _, sc := range scans {
		counts[key{sc.Location.CityOrUnknown(), sc.Location.CountryOrUnknown()}]++
	}

	out := make([]models.LocationMetrics, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.LocationMetrics{City: k.city, Country: k.country, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Country < out[j].Country
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
