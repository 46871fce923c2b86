package geo

import (
	"context"
	"fmt"
	"sync"

	"github.com/oschwald/maxminddb-golang"

	"aadinath/api/metrics"
	"aadinath/api/models"
)

// cityRecord matches the GeoLite2-City database structure.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Country struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// MaxMindLocator looks addresses up in a local GeoLite2-City database.
type MaxMindLocator struct {
	mu sync.RWMutex
	db *maxminddb.Reader
}

func OpenMaxMind(path string) (*MaxMindLocator, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindLocator{db: db}, nil
}

func (m *MaxMindLocator) Locate(_ context.Context, ip string) models.Location {
	early, parsed, done := classify(ip)
	if done {
		return early
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return UnknownLocation()
	}

	var record cityRecord
	if err := m.db.Lookup(parsed, &record); err != nil {
		metrics.RecordGeoLookup("maxmind", "error")
		return UnknownLocation()
	}

	loc := models.Location{
		City:    record.City.Names["en"],
		Country: record.Country.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		lat, lon := record.Location.Latitude, record.Location.Longitude
		loc.Latitude, loc.Longitude = &lat, &lon
	}

	if !loc.Known() {
		metrics.RecordGeoLookup("maxmind", "miss")
		return UnknownLocation()
	}
	metrics.RecordGeoLookup("maxmind", "hit")
	return loc
}

func (m *MaxMindLocator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
