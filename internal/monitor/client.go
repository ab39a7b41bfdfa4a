package monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	requestInterval = 100 * time.Millisecond
)

// Client talks to the upstream monitoring pipeline that processes
// freshly discovered videos. The pipeline is the source feed for the
// new-video pool.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	lastRequest time.Time
}

// VideoInfo is one processed video reported by the monitoring pipeline
type VideoInfo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	ViewCount   int64  `json:"view_count"`
	ProcessedAt string `json:"processed_at"`
}

// videosResponse wraps the pipeline's recent-videos API response
type videosResponse struct {
	Videos []VideoInfo `json:"videos"`
}

// APIError represents an error returned by the monitoring pipeline API
type APIError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("monitor API error (code %d): %s", e.StatusCode, e.StatusMessage)
}

// NewClient creates a new monitoring pipeline client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL allows overriding the base URL (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetRecentVideos fetches the most recently processed videos from the
// pipeline, newest first.
func (c *Client) GetRecentVideos(limit int) ([]VideoInfo, error) {
	if limit <= 0 {
		return []VideoInfo{}, nil
	}

	c.rateLimit()

	endpoint := fmt.Sprintf("%s/videos/recent?api_key=%s&limit=%d", c.baseURL, c.apiKey, limit)

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent videos: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	var result videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode recent videos response: %w", err)
	}

	return result.Videos, nil
}

// checkResponse checks the HTTP response for errors
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{
			StatusCode:    resp.StatusCode,
			StatusMessage: fmt.Sprintf("HTTP %d: failed to read error response", resp.StatusCode),
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &APIError{
			StatusCode:    resp.StatusCode,
			StatusMessage: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	if apiErr.StatusMessage == "" {
		apiErr.StatusMessage = fmt.Sprintf("HTTP %d error", resp.StatusCode)
	}

	return &apiErr
}

// rateLimit spaces requests out to avoid hitting pipeline API limits
func (c *Client) rateLimit() {
	elapsed := time.Since(c.lastRequest)
	if elapsed < requestInterval {
		time.Sleep(requestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}
