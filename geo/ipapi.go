package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"aadinath/api/metrics"
	"aadinath/api/models"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// ipapiResponse matches the ipapi.co JSON shape.
type ipapiResponse struct {
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// IPAPILocator queries an ipapi.co compatible HTTP service. Repeated failures
// open a circuit breaker so a dead upstream stops costing request latency.
type IPAPILocator struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[models.Location]
	log     *zap.SugaredLogger
}

func NewIPAPILocator(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *IPAPILocator {
	settings := gobreaker.Settings{
		Name:    "ipapi",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &IPAPILocator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[models.Location](settings),
		log:     log,
	}
}

func (l *IPAPILocator) Locate(ctx context.Context, ip string) models.Location {
	if loc, _, done := classify(ip); done {
		return loc
	}

	loc, err := l.breaker.Execute(func() (models.Location, error) {
		return l.fetch(ctx, ip)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordGeoLookup("ipapi", "skipped")
		} else {
			metrics.RecordGeoLookup("ipapi", "error")
			l.log.Warnf("Geolocation lookup for %s failed: %v", ip, err)
		}
		return UnknownLocation()
	}

	if !loc.Known() {
		metrics.RecordGeoLookup("ipapi", "miss")
		return UnknownLocation()
	}
	metrics.RecordGeoLookup("ipapi", "hit")
	return loc
}

func (l *IPAPILocator) fetch(ctx context.Context, ip string) (models.Location, error) {
	url := fmt.Sprintf("%s/%s/json/", l.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return models.Location{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("ipapi returned %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Location{}, fmt.Errorf("decode response: %w", err)
	}
	// Reserved or unknown addresses are answered with error=true; that is a
	// miss, not an upstream failure.
	if body.Error {
		return models.Location{}, nil
	}

	return models.Location{
		City:      body.City,
		Region:    body.Region,
		Country:   body.CountryName,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}, nil
}
