package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordQuery(t *testing.T) {
	before := testutil.ToFloat64(QueryFailures.WithLabelValues("test_scans"))

	RecordQuery("test_scans", 10*time.Millisecond, nil)
	assert.Equal(t, before, testutil.ToFloat64(QueryFailures.WithLabelValues("test_scans")))

	RecordQuery("test_scans", 10*time.Millisecond, errors.New("timeout"))
	assert.Equal(t, before+1, testutil.ToFloat64(QueryFailures.WithLabelValues("test_scans")))
}

func TestRecordGeoLookup(t *testing.T) {
	before := testutil.ToFloat64(GeoLookups.WithLabelValues("cache", "hit"))
	RecordGeoLookup("cache", "hit")
	assert.Equal(t, before+1, testutil.ToFloat64(GeoLookups.WithLabelValues("cache", "hit")))
}
