package landmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"
)

// RemoteProvider calls a landmark detection sidecar over HTTP. The image is
// posted as PNG and the sidecar answers with the landmark sets of every face
// it found; only the first face is used.
type RemoteProvider struct {
	client  *http.Client
	baseURL string
}

// detectionResponse is the sidecar's wire format.
type detectionResponse struct {
	Faces []struct {
		Points []Point `json:"points"`
	} `json:"faces"`
}

// NewRemoteProvider creates a provider for the detector at baseURL.
func NewRemoteProvider(baseURL string, timeout time.Duration) *RemoteProvider {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &RemoteProvider{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL: baseURL,
	}
}

// Detect posts the image to the sidecar and returns the primary face's
// landmark set, or an empty slice when no face was detected.
func (p *RemoteProvider) Detect(ctx context.Context, img image.Image) ([]Point, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for detection: %w", err)
	}
	payload := body.Bytes()

	// Retry transient failures; 4xx responses are contract errors and are
	// not retried.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		points, retryable, err := p.detectOnce(ctx, payload)
		if err == nil {
			return points, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("landmark detection failed: %w", lastErr)
}

func (p *RemoteProvider) detectOnce(ctx context.Context, payload []byte) ([]Point, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/landmarks", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("invalid detector URL: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Go-SkinTone-Analyzer/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("detector server error: status code %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("detector client error: status code %d", resp.StatusCode)
	}

	var decoded detectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode detector response: %w", err)
	}

	if len(decoded.Faces) == 0 {
		return []Point{}, false, nil
	}
	return decoded.Faces[0].Points, false, nil
}
