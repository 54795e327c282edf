package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/device"
)

// Credentials identify the submitting owner on each call. They are passed
// explicitly rather than held in shared process state so two owners (or two
// sessions) can never leak into each other's requests.
type Credentials struct {
	Token string
}

type SubmitResult struct {
	CanonicalID string
}

// Submitter sends one pending device record to the backend.
type Submitter interface {
	Submit(ctx context.Context, creds Credentials, record device.Record, image []byte) (SubmitResult, error)
}

// APIClient submits records over the backend's multipart HTTP endpoint.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Submit implements Submitter.
func (c *APIClient) Submit(ctx context.Context, creds Credentials, record device.Record, image []byte) (SubmitResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("selfie", filepath.Base(record.ImagePath))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to create selfie part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to write selfie bytes: %w", err)
	}

	fields := map[string]string{
		"latitude":  strconv.FormatFloat(record.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(record.Longitude, 'f', -1, 64),
		"timestamp": strconv.FormatInt(record.Timestamp.UnixMilli(), 10),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return SubmitResult{}, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/attendance", &body)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return SubmitResult{}, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SubmitResult{}, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if !parsed.Success || parsed.Data.ID == "" {
		return SubmitResult{}, fmt.Errorf("backend rejected submission: %s", parsed.Message)
	}

	return SubmitResult{CanonicalID: parsed.Data.ID}, nil
}
