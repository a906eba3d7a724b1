package country

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPISourceCountries(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/countries", r.URL.Path)
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"id":"velmara"},{"id":"ostrau"},{"id":""}]`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "tok", 0)
	ids, err := src.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{"velmara", "ostrau"}, ids, "blank ids are dropped")
	assert.Equal(t, "Bearer tok", auth)
}

func TestAPISourceSnapshotOverlaysReportedMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/countries/velmara/snapshot", r.URL.Path)
		w.Write([]byte(`{
			"stability": {"stability_score": 22.5, "crime_rate": null},
			"economy": {"unemployment_rate": 19},
			"recent_events": {"successful_attacks_last_90_days": 2}
		}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "", 0)
	snap, err := src.Snapshot(context.Background(), "velmara")
	require.NoError(t, err)

	neutral := Neutral("velmara")

	// Reported metrics land.
	assert.Equal(t, 22.5, snap.Stability.StabilityScore)
	assert.Equal(t, 19.0, snap.Economy.UnemploymentRate)
	assert.Equal(t, 2, snap.RecentEvents.SuccessfulAttacksLast90Days)

	// Null and absent metrics fall back to neutral, never to zero.
	assert.Equal(t, neutral.Stability.CrimeRate, snap.Stability.CrimeRate)
	assert.Equal(t, neutral.Military, snap.Military)
	assert.Equal(t, neutral.Politics, snap.Politics)
	assert.Equal(t, neutral.Economy.GDPPerCapita, snap.Economy.GDPPerCapita)
}

func TestAPISourceSnapshotEmptyBodyIsFullyNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "", 0)
	snap, err := src.Snapshot(context.Background(), "ostrau")
	require.NoError(t, err)
	assert.Equal(t, Neutral("ostrau"), snap)
}

func TestAPISourceSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance window", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "", 0)

	_, err := src.Countries(context.Background())
	assert.ErrorContains(t, err, "503")

	_, err = src.Snapshot(context.Background(), "velmara")
	assert.ErrorContains(t, err, "503")
}
