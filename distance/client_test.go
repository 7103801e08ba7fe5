package distance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigbooks/bookkeeping/distance"
	"github.com/gigbooks/bookkeeping/engine"
)

// =============================================================================
// HTTP CLIENT
// =============================================================================

func TestClient_Distance_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/distance", r.URL.Path)

		var req distance.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "100 Home St", req.StartAddress)
		assert.True(t, req.RoundTrip)

		json.NewEncoder(w).Encode(distance.Result{Status: "success", DistanceMiles: 24.4})
	}))
	defer srv.Close()

	client := distance.NewClient(srv.URL)
	result, err := client.Distance(context.Background(), distance.Request{
		StartAddress: "100 Home St",
		EndAddress:   "500 Convention Blvd",
		RoundTrip:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 24.4, result.DistanceMiles)
}

func TestClient_Distance_ErrorStatusFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(distance.Result{Status: "error", Error: "address not found"})
	}))
	defer srv.Close()

	client := distance.NewClient(srv.URL)
	_, err := client.Distance(context.Background(), distance.Request{
		StartAddress: "nowhere", EndAddress: "anywhere",
	})

	assert.ErrorIs(t, err, engine.ErrDistanceUnavailable)
}

func TestClient_Distance_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := distance.NewClient(srv.URL)
	_, err := client.Distance(context.Background(), distance.Request{
		StartAddress: "a", EndAddress: "b",
	})

	assert.ErrorIs(t, err, engine.ErrDistanceUnavailable)
}

// =============================================================================
// STATIC CALCULATOR
// =============================================================================

func TestStatic_Distance(t *testing.T) {
	static := &distance.Static{
		Routes:       map[string]float64{"a|b": 12.5},
		DefaultMiles: 10,
	}
	ctx := context.Background()

	// GIVEN a known route
	result, err := static.Distance(ctx, distance.Request{StartAddress: "a", EndAddress: "b"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, result.DistanceMiles)

	// WHEN round trip is requested, miles double
	result, err = static.Distance(ctx, distance.Request{StartAddress: "a", EndAddress: "b", RoundTrip: true})
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.DistanceMiles)

	// Unknown routes fall back to the default
	result, err = static.Distance(ctx, distance.Request{StartAddress: "x", EndAddress: "y"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.DistanceMiles)
}

func TestStatic_Distance_NoRouteNoDefault(t *testing.T) {
	static := &distance.Static{}

	_, err := static.Distance(context.Background(), distance.Request{StartAddress: "x", EndAddress: "y"})
	assert.ErrorIs(t, err, engine.ErrDistanceUnavailable)
}
