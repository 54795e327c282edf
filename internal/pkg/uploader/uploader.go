package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUploadFailed is returned once the retry budget is exhausted. Callers
// must not create a canonical record without the returned URL.
var ErrUploadFailed = errors.New("image upload failed after all attempts")

// ImageUploader sends captured image bytes to a remote content store and
// returns a stable public URL.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// HostedUploader uploads to a third-party image host over multipart HTTP.
type HostedUploader struct {
	uploadURL string
	apiKey    string
	client    *http.Client
}

func NewHostedUploader(uploadURL, apiKey string, client *http.Client) *HostedUploader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HostedUploader{
		uploadURL: uploadURL,
		apiKey:    apiKey,
		client:    client,
	}
}

type hostedUploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (u *HostedUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if u.apiKey != "" {
		if err := writer.WriteField("key", u.apiKey); err != nil {
			return "", fmt.Errorf("failed to write api key field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("image", "attendance"+extensionFor(contentType))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write image bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	var parsed hostedUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode image host response: %w", err)
	}
	if parsed.Data.URL == "" {
		return "", fmt.Errorf("image host response contained no url")
	}

	return parsed.Data.URL, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}

// RetryingUploader wraps an ImageUploader with a bounded retry loop. After a
// failed attempt n it waits n seconds before the next one; there is no wait
// after the final attempt. The wait respects context cancellation so a torn
// down session abandons the upload cleanly.
type RetryingUploader struct {
	inner       ImageUploader
	maxAttempts int

	// knownURL, when set, is consulted before each attempt. A non-empty
	// value means a prior partial success already produced a stable URL,
	// so re-uploading would only duplicate content.
	knownURL func() string

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

type RetryOption func(*RetryingUploader)

// WithKnownURL installs a side-channel that can short-circuit the upload.
func WithKnownURL(fn func() string) RetryOption {
	return func(r *RetryingUploader) {
		r.knownURL = fn
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *RetryingUploader) {
		r.sleep = fn
	}
}

func NewRetryingUploader(inner ImageUploader, maxAttempts int, opts ...RetryOption) *RetryingUploader {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r := &RetryingUploader{
		inner:       inner,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryingUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if r.knownURL != nil {
			if url := r.knownURL(); url != "" {
				return url, nil
			}
		}

		url, err := r.inner.Upload(ctx, data, contentType)
		if err == nil {
			return url, nil
		}
		lastErr = err
		slog.Warn("image upload attempt failed",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err)

		if attempt == r.maxAttempts {
			break
		}
		// Linear backoff: 1s after the first failure, 2s after the second.
		if err := r.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
			return "", fmt.Errorf("upload cancelled during backoff: %w", err)
		}
	}

	return "", fmt.Errorf("%w: %d attempts: %v", ErrUploadFailed, r.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
