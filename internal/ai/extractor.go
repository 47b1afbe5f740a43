package ai

import (
	"context"

	"github.com/spigell/cv-screener/internal/candidate"
)

// Extractor turns résumé text and job description text into a candidate record.
// Implementations make one remote call per invocation and never retry locally.
type Extractor interface {
	Infer(ctx context.Context, cvText, jdText string) (*candidate.Record, error)
}
