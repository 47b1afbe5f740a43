package notion

import "fmt"

// APIError is the error object returned by the Notion API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("notion api: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// StoreWriteError is returned by Create once every attempt has failed.
type StoreWriteError struct {
	Attempts int
	Err      error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
