package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/spigell/cv-screener/internal/candidate"
	"github.com/spigell/cv-screener/internal/logger"
)

const (
	apiURL     = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"
	userAgent  = "spigell/cv-screener"

	// MaxCreateAttempts bounds how many times Create runs the upload and row creation.
	MaxCreateAttempts = 5
	// StatusProcessedByAI is the status label set on every created row.
	StatusProcessedByAI = "Processed by AI"
)

// Client talks to one Notion database used as the candidate record store.
type Client struct {
	databaseID string
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client authenticating with the integration token as a bearer token.
func New(ctx context.Context, log *zap.Logger, token, databaseID string, location *time.Location) *Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: strings.TrimSpace(token),
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = 60 * time.Second

	if location == nil {
		location = time.UTC
	}

	return &Client{
		databaseID: strings.TrimSpace(databaseID),
		location:   location,
		logger:     logger.WithFields(log, zap.String("store", "notion")),
		now:        time.Now,
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		APIURL:     apiURL,
	}
}

// Configure checks the token and the database once before any item is processed.
func (c *Client) Configure(ctx context.Context) error {
	if c.databaseID == "" {
		return errors.New("notion database id is required")
	}

	var user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.APIURL+"/users/me", nil, &user); err != nil {
		return fmt.Errorf("verify notion token: %w", err)
	}

	var database struct {
		ID    string `json:"id"`
		Title []struct {
			PlainText string `json:"plain_text"`
		} `json:"title"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.APIURL+"/databases/"+c.databaseID, nil, &database); err != nil {
		return fmt.Errorf("retrieve notion database %s: %w", c.databaseID, err)
	}

	var title strings.Builder
	for _, t := range database.Title {
		title.WriteString(t.PlainText)
	}
	c.logger.Info("connected to notion", zap.String("bot", user.Name), zap.String("database", title.String()))

	return nil
}

// DatabaseURL links to the database in the Notion web app.
func (c *Client) DatabaseURL() string {
	return "https://notion.so/" + strings.ReplaceAll(c.databaseID, "-", "")
}

// Exists reports whether a row with this email already exists for the position.
// Store errors are logged and treated as "no duplicate" so candidates are not
// dropped during store outages.
func (c *Client) Exists(ctx context.Context, email, positionTitle string) bool {
	if !candidate.Known(email) {
		return false
	}
	email = strings.TrimSpace(email)

	log := c.logger.With(zap.String("email", email))

	filters := []map[string]any{
		{"property": propEmail, "email": map[string]any{"equals": email}},
	}
	if candidate.Known(positionTitle) {
		filters = append(filters, map[string]any{
			"property": propPositionTitle,
			"select":   map[string]any{"equals": selectName(strings.TrimSpace(positionTitle))},
		})
	}

	var filter map[string]any
	if len(filters) == 1 {
		filter = filters[0]
	} else {
		filter = map[string]any{"and": filters}
	}

	var response queryResponse
	err := c.doJSON(ctx, http.MethodPost, c.APIURL+"/databases/"+c.databaseID+"/query",
		map[string]any{"filter": filter, "page_size": 1}, &response)
	if err != nil {
		log.Warn("duplicate check failed, assuming no duplicate", zap.Error(err))
		return false
	}

	pages, err := response.pages()
	if err != nil {
		log.Warn("duplicate check returned unexpected results, assuming no duplicate", zap.Error(err))
		return false
	}

	return len(pages) > 0
}

// Create uploads the CV file and creates the candidate row. Every attempt
// repeats the whole upload. After the last failed attempt it returns "" and a
// *StoreWriteError.
func (c *Client) Create(ctx context.Context, record *candidate.Record, filePath string) (string, error) {
	if record == nil {
		return "", &StoreWriteError{Err: errors.New("record is required")}
	}

	var (
		lastErr  error
		attempts int
	)
	for attempts < MaxCreateAttempts {
		attempts++

		id, err := c.createOnce(ctx, record, filePath)
		if err == nil {
			return id, nil
		}
		lastErr = err

		c.logger.Warn("creating notion row failed",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", MaxCreateAttempts),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	return "", &StoreWriteError{Attempts: attempts, Err: lastErr}
}

func (c *Client) createOnce(ctx context.Context, record *candidate.Record, filePath string) (string, error) {
	uploadID, err := c.uploadFile(ctx, filePath)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": c.properties(record, uploadID),
	}

	var page struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.APIURL+"/pages", body, &page); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	if page.ID == "" {
		return "", errors.New("create page: notion returned empty page id")
	}

	return page.ID, nil
}
