package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/candidate"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/utils"
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
	Model() string
}

// Extractor implements ai.Extractor on top of a Gemini generator.
type Extractor struct {
	generator jsonGenerator
	schema    *genai.Schema
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewExtractor(generator jsonGenerator, log *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		schema:    candidate.ResponseSchema(),
		logger:    logger.WithFields(log, logger.CommonFields(Provider, generator.Model())...),
		maxLogLen: maxLogLength,
	}
}

// Infer asks the model for a candidate record and validates the answer.
// Remote errors are returned as they are; malformed answers become
// *candidate.SchemaValidationError.
func (e *Extractor) Infer(ctx context.Context, cvText, jdText string) (*candidate.Record, error) {
	if strings.TrimSpace(cvText) == "" {
		return nil, errors.New("cv text is required")
	}
	if strings.TrimSpace(jdText) == "" {
		return nil, errors.New("job description text is required")
	}

	prompt := buildPrompt(cvText, jdText)

	e.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateJSON(ctx, prompt, e.schema)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseRecord(raw)
}

func buildPrompt(cvText, jdText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job description:\n{{JOB_DESCRIPTION}}\n\nCandidate CV:\n{{CV_TEXT}}"
	}
	prompt := strings.ReplaceAll(template, "{{JOB_DESCRIPTION}}", strings.TrimSpace(jdText))
	prompt = strings.ReplaceAll(prompt, "{{CV_TEXT}}", strings.TrimSpace(cvText))
	return prompt
}

func parseRecord(raw string) (*candidate.Record, error) {
	cleaned := extractJSON(raw)

	decoder := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	decoder.DisallowUnknownFields()

	var record candidate.Record
	if err := decoder.Decode(&record); err != nil {
		return nil, &candidate.SchemaValidationError{Err: fmt.Errorf("parse gemini response: %w", err)}
	}
	if decoder.More() {
		return nil, &candidate.SchemaValidationError{Err: errors.New("parse gemini response: trailing data after the JSON object")}
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return &record, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
