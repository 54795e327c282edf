package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNominatimGeocoder_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		w.Write([]byte(`{"display_name":"India Gate, New Delhi, Delhi, India"}`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, 2*time.Second)
	got := g.ReverseGeocode(context.Background(), 28.6129, 77.2295)

	assert.Equal(t, "India Gate, New Delhi, Delhi, India", got)
}

func TestNominatimGeocoder_ServerErrorReturnsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, 2*time.Second)
	got := g.ReverseGeocode(context.Background(), 28.6129, 77.2295)

	assert.Equal(t, FallbackAddress, got)
}

func TestNominatimGeocoder_TimeoutReturnsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"display_name":"too late"}`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, 20*time.Millisecond)
	got := g.ReverseGeocode(context.Background(), 28.6129, 77.2295)

	assert.Equal(t, FallbackAddress, got)
}

func TestNominatimGeocoder_EmptyResultReturnsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(server.URL, 2*time.Second)
	got := g.ReverseGeocode(context.Background(), 28.6129, 77.2295)

	assert.Equal(t, FallbackAddress, got)
}

func TestNominatimGeocoder_UnreachableReturnsFallback(t *testing.T) {
	g := NewNominatimGeocoder("http://127.0.0.1:1", 100*time.Millisecond)
	got := g.ReverseGeocode(context.Background(), 28.6129, 77.2295)

	assert.Equal(t, FallbackAddress, got)
}
