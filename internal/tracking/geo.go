package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeoLocator resolves a client address to a country and a city using an
// ipapi.co compatible endpoint.
type GeoLocator struct {
	baseURL    string
	httpClient *http.Client
}

func NewGeoLocator(baseURL string, timeout time.Duration) *GeoLocator {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &GeoLocator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type geoResponse struct {
	CountryName string `json:"country_name"`
	City        string `json:"city"`
}

// Lookup returns empty strings when the address cannot be resolved.
func (g *GeoLocator) Lookup(ctx context.Context, ip string) (country, city string) {
	if ip == "" {
		return "", ""
	}
	resp, err := g.lookup(ctx, ip)
	if err != nil {
		return "", ""
	}
	return resp.CountryName, resp.City
}

func (g *GeoLocator) lookup(ctx context.Context, ip string) (*geoResponse, error) {
	u := fmt.Sprintf("%s/%s/json/", g.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo service returned status %d", res.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &body, nil
}
