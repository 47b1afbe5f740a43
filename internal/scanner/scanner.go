package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
)

// Runner runs one position batch.
type Runner interface {
	Run(ctx context.Context, batch pipeline.Batch) pipeline.Report
}

// Plan is the result of walking the jobs root before any remote call.
type Plan struct {
	Root      string
	Positions []*Position
	// Skipped maps a position name to the reason it is not eligible.
	Skipped map[string]string
}

// Total is the number of CV files in eligible positions.
func (p *Plan) Total() int {
	n := 0
	for _, pos := range p.Positions {
		n += len(pos.Discovered)
	}
	return n
}

// Pending is the number of CV files that a run would process.
func (p *Plan) Pending() int {
	n := 0
	for _, pos := range p.Positions {
		n += len(pos.Pending)
	}
	return n
}

type Scanner struct {
	runner  Runner
	extract extract.Func
	logger  *zap.Logger
}

func New(runner Runner, extractFn extract.Func, log *zap.Logger) *Scanner {
	if extractFn == nil {
		extractFn = extract.Text
	}
	return &Scanner{runner: runner, extract: extractFn, logger: logger.WithFields(log)}
}

// Plan discovers the positions under root. Malformed positions are skipped,
// only an unreadable root is an error.
func (s *Scanner) Plan(root string) (*Plan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("jobs folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("jobs folder %s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read jobs folder: %w", err)
	}

	plan := &Plan{Root: root, Skipped: map[string]string{}}
	for _, entry := range entries {
		if !entry.IsDir() || skipName(entry.Name()) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if !IsPosition(dir) {
			continue
		}

		log := s.logger.With(logger.ItemFields(entry.Name(), "")...)

		pos, err := loadPosition(dir)
		if err != nil {
			log.Warn("skipping position", zap.Error(err))
			plan.Skipped[entry.Name()] = err.Error()
			continue
		}

		log.Info("position discovered",
			zap.String("job_description", filepath.Base(pos.JobDescription)),
			zap.Int("discovered", len(pos.Discovered)),
			zap.Int("pending", len(pos.Pending)),
		)
		plan.Positions = append(plan.Positions, pos)
	}

	return plan, nil
}

// Run processes the pending files of every planned position and folds the
// position reports into one.
func (s *Scanner) Run(ctx context.Context, plan *Plan) pipeline.Report {
	var overall pipeline.Report
	for name, reason := range plan.Skipped {
		overall.Skip(name, reason)
	}

	for _, pos := range plan.Positions {
		log := s.logger.With(logger.ItemFields(pos.Name, "")...)

		if len(pos.Pending) == 0 {
			log.Info("all files already processed, skipping position", zap.Int("discovered", len(pos.Discovered)))
			overall.Total += len(pos.Discovered)
			continue
		}

		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled, position not processed", zap.Error(err))
			overall.Total += len(pos.Discovered)
			overall.Skip(pos.Name, err.Error())
			continue
		}

		jdText, err := s.jobDescriptionText(pos.JobDescription)
		if err != nil {
			log.Error("could not read job description, skipping position", zap.Error(err))
			overall.Total += len(pos.Discovered)
			overall.Skip(pos.Name, err.Error())
			continue
		}

		batch := pipeline.Batch{
			Position:       pos.Name,
			JobDescription: jdText,
			Log:            pos.Log,
		}
		for _, path := range pos.Pending {
			batch.Items = append(batch.Items, pipeline.NewWorkItem(path))
		}

		report := s.runner.Run(ctx, batch)
		report.Total = len(pos.Discovered)

		log.Info("position finished",
			zap.Int("succeeded", report.Succeeded),
			zap.Int("duplicates", report.Duplicates),
			zap.Int("failed", report.Failed),
		)
		overall.Merge(report)
	}

	return overall
}

// Scan plans and runs root in one go.
func (s *Scanner) Scan(ctx context.Context, root string) (pipeline.Report, error) {
	plan, err := s.Plan(root)
	if err != nil {
		return pipeline.Report{}, err
	}
	return s.Run(ctx, plan), nil
}

// ErrEmptyJobDescription is returned when the job description has no text.
var ErrEmptyJobDescription = errors.New("job description has no extractable text")

func (s *Scanner) jobDescriptionText(path string) (string, error) {
	text, err := s.extract(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyJobDescription)
	}
	return text, nil
}

// JobDescriptionText extracts the job description of position dir.
func JobDescriptionText(dir string, extractFn extract.Func) (string, error) {
	path, err := JobDescription(dir)
	if err != nil {
		return "", err
	}
	if extractFn == nil {
		extractFn = extract.Text
	}
	return (&Scanner{extract: extractFn}).jobDescriptionText(path)
}
