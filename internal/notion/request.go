package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const contentType = "application/json"

type queryResponse struct {
	Object  string           `json:"object"`
	Results []map[string]any `json:"results"`
	HasMore bool             `json:"has_more"`
}

type page struct {
	Object string `mapstructure:"object"`
	ID     string `mapstructure:"id"`
	URL    string `mapstructure:"url"`
}

func (r *queryResponse) pages() ([]page, error) {
	var pages []page
	if err := mapstructure.Decode(r.Results, &pages); err != nil {
		return nil, fmt.Errorf("decode query results: %w", err)
	}
	return pages, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

func decodeResponse(resp *http.Response, target any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Authorization comes from the oauth2 transport of HTTPClient.
func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)

	return req
}
