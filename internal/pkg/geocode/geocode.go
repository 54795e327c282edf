package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// FallbackAddress is stored on a record when reverse geocoding fails.
// Geocoding is strictly best-effort and must never block record creation.
const FallbackAddress = "Address unavailable"

// Geocoder resolves coordinates into a human-readable address. It never
// returns an error; any failure yields FallbackAddress.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// NominatimGeocoder queries a Nominatim-compatible reverse endpoint. One
// attempt per record, short timeout, no retry.
type NominatimGeocoder struct {
	baseURL string
	client  *http.Client
}

func NewNominatimGeocoder(baseURL string, timeout time.Duration) *NominatimGeocoder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NominatimGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	url := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%f&lon=%f", g.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("reverse geocode request build failed", "error", err)
		return FallbackAddress
	}
	req.Header.Set("User-Agent", "fieldforce-backend")

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Warn("reverse geocode request failed", "lat", lat, "lon", lon, "error", err)
		return FallbackAddress
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		slog.Warn("reverse geocode returned non-200", "status", resp.StatusCode)
		return FallbackAddress
	}

	var parsed nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.Warn("reverse geocode decode failed", "error", err)
		return FallbackAddress
	}
	if parsed.DisplayName == "" {
		return FallbackAddress
	}

	return parsed.DisplayName
}
