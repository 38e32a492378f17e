// Package costs fetches per-asset cost and consumption figures from the cost
// aggregation service.
package costs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrUnavailable wraps every failure to obtain figures from the service.
var ErrUnavailable = errors.New("cost service unavailable")

const dateLayout = "2006-01-02"

// Query selects the period and organizational scope of the figures.
type Query struct {
	Start          time.Time
	End            time.Time
	BusinessUnitID string
	PlantID        string
}

// Source returns cost figures keyed by asset id.
type Source interface {
	AssetFigures(ctx context.Context, q Query) (map[string]models.AssetCostFigures, error)
}

// Client calls the cost aggregation HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. A zero timeout falls back to 15 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type figuresResponse struct {
	Assets []models.AssetCostFigures `json:"assets"`
}

// AssetFigures requests the figures for q in a single call.
func (c *Client) AssetFigures(ctx context.Context, q Query) (map[string]models.AssetCostFigures, error) {
	params := url.Values{}
	params.Set("start", q.Start.Format(dateLayout))
	params.Set("end", q.End.Format(dateLayout))
	if q.BusinessUnitID != "" {
		params.Set("business_unit", q.BusinessUnitID)
	}
	if q.PlantID != "" {
		params.Set("plant", q.PlantID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/costs/assets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body figuresResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	out := make(map[string]models.AssetCostFigures, len(body.Assets))
	for _, f := range body.Assets {
		if f.AssetID == "" {
			continue
		}
		out[f.AssetID] = f
	}
	return out, nil
}
