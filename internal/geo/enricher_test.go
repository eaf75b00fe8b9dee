package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEnricher(t *testing.T, handler http.HandlerFunc) *Enricher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEnricher(&config.GeoConfig{URL: srv.URL, Timeout: time.Second}, zaptest.NewLogger(t))
}

func TestEnrich(t *testing.T) {
	var gotPath string
	e := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{
			"status": "success",
			"country": "Vietnam",
			"countryCode": "VN",
			"regionName": "Hanoi",
			"city": "Hanoi",
			"lat": 21.0292,
			"lon": 105.8526,
			"timezone": "Asia/Bangkok",
			"isp": "Viettel Group",
			"org": "Viettel Corporation",
			"query": "1.2.3.4"
		}`))
	})

	loc := e.Enrich(context.Background(), "1.2.3.4")

	assert.Equal(t, "/json/1.2.3.4", gotPath)
	assert.Equal(t, "Vietnam", loc.Country)
	assert.Equal(t, "VN", loc.CountryCode)
	assert.Equal(t, "Hanoi", loc.City)
	assert.Equal(t, "Hanoi", loc.Region)
	assert.Equal(t, "Viettel Group", loc.ISP)
	assert.Equal(t, "Viettel Corporation", loc.Org)
	assert.Equal(t, "Asia/Bangkok", loc.Timezone)
	require.NotNil(t, loc.Lat)
	require.NotNil(t, loc.Lon)
	assert.InDelta(t, 21.0292, *loc.Lat, 1e-9)
	assert.InDelta(t, 105.8526, *loc.Lon, 1e-9)
}

func TestEnrichPartial(t *testing.T) {
	e := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","country":"Iceland"}`))
	})

	loc := e.Enrich(context.Background(), "1.2.3.4")
	assert.Equal(t, "Iceland", loc.Country)
	assert.Empty(t, loc.City)
	assert.Nil(t, loc.Lat)
}

func TestEnrichFailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "status fail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range","query":"10.0.0.1"}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>rate limited</html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnricher(t, tt.handler)
			loc := e.Enrich(context.Background(), "10.0.0.1")
			assert.True(t, loc.IsEmpty())
			assert.Equal(t, types.Location{}, loc)
		})
	}
}

func TestEnrichUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := NewEnricher(&config.GeoConfig{URL: url, Timeout: time.Second}, zaptest.NewLogger(t))
	assert.True(t, e.Enrich(context.Background(), "1.2.3.4").IsEmpty())
}
