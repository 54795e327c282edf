package uploader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyUploader fails a fixed number of times before succeeding.
type flakyUploader struct {
	failures int
	attempts int
	url      string
}

func (f *flakyUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return "", fmt.Errorf("transient failure %d", f.attempts)
	}
	return f.url, nil
}

func noSleep(recorded *[]time.Duration) RetryOption {
	return withSleep(func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	})
}

func TestRetryingUploader_SucceedsOnThirdAttempt(t *testing.T) {
	inner := &flakyUploader{failures: 2, url: "https://img.example.com/a.jpg"}
	var delays []time.Duration
	up := NewRetryingUploader(inner, 3, noSleep(&delays))

	url, err := up.Upload(context.Background(), []byte("jpeg"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/a.jpg", url)
	assert.Equal(t, 3, inner.attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestRetryingUploader_ExhaustsRetryBudget(t *testing.T) {
	inner := &flakyUploader{failures: 100}
	var delays []time.Duration
	up := NewRetryingUploader(inner, 3, noSleep(&delays))

	_, err := up.Upload(context.Background(), []byte("jpeg"), "image/jpeg")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 3, inner.attempts)
	// No backoff after the final attempt.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestRetryingUploader_KnownURLShortCircuits(t *testing.T) {
	inner := &flakyUploader{failures: 0, url: "https://img.example.com/new.jpg"}
	var delays []time.Duration
	up := NewRetryingUploader(inner, 3,
		noSleep(&delays),
		WithKnownURL(func() string { return "https://img.example.com/already-there.jpg" }),
	)

	url, err := up.Upload(context.Background(), []byte("jpeg"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/already-there.jpg", url)
	assert.Equal(t, 0, inner.attempts)
}

func TestRetryingUploader_CancelledDuringBackoff(t *testing.T) {
	inner := &flakyUploader{failures: 100}
	ctx, cancel := context.WithCancel(context.Background())
	up := NewRetryingUploader(inner, 3, withSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := up.Upload(ctx, []byte("jpeg"), "image/jpeg")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.attempts)
}

func TestHostedUploader_ParsesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "test-key", r.FormValue("key"))
		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		file.Close()
		w.Write([]byte(`{"success":true,"data":{"url":"https://img.example.com/x.jpg"}}`))
	}))
	defer server.Close()

	up := NewHostedUploader(server.URL, "test-key", server.Client())
	url, err := up.Upload(context.Background(), []byte("jpeg-bytes"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/x.jpg", url)
}

func TestHostedUploader_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	up := NewHostedUploader(server.URL, "", server.Client())
	_, err := up.Upload(context.Background(), []byte("jpeg-bytes"), "image/jpeg")

	assert.Error(t, err)
}

func TestHostedUploader_EmptyPayload(t *testing.T) {
	up := NewHostedUploader("http://unused.invalid", "", nil)
	_, err := up.Upload(context.Background(), nil, "image/jpeg")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUploadFailed))
}
