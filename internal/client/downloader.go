package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	api "github.com/mediafetch/video-downloader/api/v1alpha1"
	"github.com/mediafetch/video-downloader/pkg/requestid"
)

// ResponseError is returned for any non-2xx answer of the server.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// DownloaderClient talks to the download server.
type DownloaderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDownloaderClient(baseURL string, httpClient *http.Client) *DownloaderClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DownloaderClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// StartDownload creates a job and returns its file id.
func (c *DownloaderClient) StartDownload(ctx context.Context, videoURL, format string) (string, error) {
	form := url.Values{"url": {videoURL}, "format": {format}}

	req, err := c.newRequest(ctx, http.MethodPost, "/start-download", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp api.StartDownloadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.FileID == "" {
		return "", fmt.Errorf("missing file_id in response")
	}
	return resp.FileID, nil
}

func (c *DownloaderClient) GetStatus(ctx context.Context, fileID string) (*api.StatusResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/status/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, err
	}

	var resp api.StatusResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *DownloaderClient) GetInfo(ctx context.Context) (*api.Info, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/info", nil)
	if err != nil {
		return nil, err
	}

	var resp api.Info
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadPath is the link of a finished file.
func DownloadPath(file string) string {
	return "/download/" + url.PathEscape(file)
}

// DownloadURL is the absolute link of a finished file.
func (c *DownloaderClient) DownloadURL(file string) string {
	return c.baseURL + DownloadPath(file)
}

// Fetch copies a finished file into w and returns the number of bytes written.
func (c *DownloaderClient) Fetch(ctx context.Context, file string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, DownloadPath(file), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call download server: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read file: %w", err)
	}
	return n, nil
}

func (c *DownloaderClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(requestid.Header, requestid.Generate())
	return req, nil
}

func (c *DownloaderClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call download server: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	var apiErr api.ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	return &ResponseError{StatusCode: resp.StatusCode, Message: msg}
}
