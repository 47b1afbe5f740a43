package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const modelsEndpoint = "https://generativelanguage.googleapis.com/v1/models"

// ErrInvalidAPIKey is returned when the key is rejected and the service gave no message.
var ErrInvalidAPIKey = errors.New("invalid API key")

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// VerifyKey lists the available models with the key once. Any non-200 answer
// is reported with the message the service returned.
func VerifyKey(ctx context.Context, client *http.Client, apiKey string) error {
	return verifyKey(ctx, client, modelsEndpoint, apiKey)
}

func verifyKey(ctx context.Context, client *http.Client, endpoint, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("gemini api key is required")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("verify gemini api key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if msg := strings.TrimSpace(apiErr.Error.Message); msg != "" {
			return fmt.Errorf("verify gemini api key: %s", msg)
		}
	}

	return fmt.Errorf("verify gemini api key: status %d: %w", resp.StatusCode, ErrInvalidAPIKey)
}
