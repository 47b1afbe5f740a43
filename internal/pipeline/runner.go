package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidate"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
)

const (
	DefaultExtractorConcurrency = 10
	DefaultStoreConcurrency     = 5
	defaultTextConcurrency      = 4
)

// ErrNoPageID is the failure recorded when the store accepts a row without returning its id.
var ErrNoPageID = errors.New("record store returned no row id")

// Store is the record store used for duplicate checks and row creation.
type Store interface {
	Exists(ctx context.Context, email, positionTitle string) bool
	Create(ctx context.Context, record *candidate.Record, filePath string) (string, error)
}

// ProcessedLog receives the names of successfully stored files.
type ProcessedLog interface {
	Append(name string) error
}

// Config holds the concurrency limits of a Runner.
type Config struct {
	// ExtractorConcurrency caps in-flight extraction service calls.
	ExtractorConcurrency int
	// StoreConcurrency caps in-flight record store calls.
	StoreConcurrency int
	// TextConcurrency caps parallel local text extraction.
	TextConcurrency int
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Extract extract.Func
	AI      ai.Extractor
	Store   Store
	Logger  *zap.Logger
}

// Batch is the work of one position folder.
type Batch struct {
	Position       string
	JobDescription string
	Items          []WorkItem
	Log            ProcessedLog
}

// Runner pushes work items through text extraction, the extraction service
// and the record store. The two service limits are shared by every Run and
// RunOne call on the same Runner.
type Runner struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger

	aiSlots    *semaphore.Weighted
	storeSlots *semaphore.Weighted
}

type stage int

const (
	stageText stage = iota + 1
	stageInfer
	stageStore
)

type result struct {
	Outcome
	stage stage
}

func New(cfg Config, deps Deps) (*Runner, error) {
	if deps.Extract == nil {
		return nil, errors.New("pipeline: text extractor is required")
	}
	if deps.AI == nil {
		return nil, errors.New("pipeline: extraction service is required")
	}
	if deps.Store == nil {
		return nil, errors.New("pipeline: record store is required")
	}

	if cfg.ExtractorConcurrency <= 0 {
		cfg.ExtractorConcurrency = DefaultExtractorConcurrency
	}
	if cfg.StoreConcurrency <= 0 {
		cfg.StoreConcurrency = DefaultStoreConcurrency
	}
	if cfg.TextConcurrency <= 0 {
		cfg.TextConcurrency = defaultTextConcurrency
	}

	return &Runner{
		cfg:        cfg,
		deps:       deps,
		logger:     logger.WithFields(deps.Logger),
		aiSlots:    semaphore.NewWeighted(int64(cfg.ExtractorConcurrency)),
		storeSlots: semaphore.NewWeighted(int64(cfg.StoreConcurrency)),
	}, nil
}

// Run processes every item of the batch. Item failures are recorded in the
// report and never stop the other items.
func (r *Runner) Run(ctx context.Context, batch Batch) Report {
	log := r.logger.With(append(logger.ItemFields(batch.Position, ""), zap.String(logger.FieldRunID, uuid.NewString()))...)

	report := Report{Total: len(batch.Items)}
	if len(batch.Items) == 0 {
		return report
	}

	log.Info("starting batch", zap.Int("items", len(batch.Items)))

	ready, dropped := r.extractTexts(batch)
	for _, res := range dropped {
		report.Add(res.Outcome)
		logOutcome(log, res.Outcome)
	}
	Step{Name: "text_extraction", Initial: len(batch.Items), Dropped: len(dropped), Left: len(ready)}.log(log)

	results := make(chan result)
	var wg sync.WaitGroup
	for _, item := range ready {
		wg.Add(1)
		go func(item WorkItem) {
			defer wg.Done()
			results <- r.process(ctx, log, batch, item)
		}(item)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var inferFailed, storeDropped int
	for res := range results {
		report.Add(res.Outcome)
		logOutcome(log, res.Outcome)

		switch {
		case res.stage == stageInfer:
			inferFailed++
		case res.Status != StatusSuccess:
			storeDropped++
		}
	}

	inferred := len(ready) - inferFailed
	Step{Name: "candidate_extraction", Initial: len(ready), Dropped: inferFailed, Left: inferred}.log(log)
	Step{Name: "record_store", Initial: inferred, Dropped: storeDropped, Left: inferred - storeDropped}.log(log)

	return report
}

// RunOne runs a single CV through every phase.
func (r *Runner) RunOne(ctx context.Context, position, jobDescription, path string, plog ProcessedLog) Outcome {
	batch := Batch{Position: position, JobDescription: jobDescription, Log: plog}
	log := r.logger.With(append(logger.ItemFields(position, ""), zap.String(logger.FieldRunID, uuid.NewString()))...)

	item := NewWorkItem(path)
	text, res, ok := r.extractText(batch, item)
	if !ok {
		logOutcome(log, res.Outcome)
		return res.Outcome
	}
	item.Text = text

	res = r.process(ctx, log, batch, item)
	logOutcome(log, res.Outcome)
	return res.Outcome
}

func (r *Runner) extractTexts(batch Batch) ([]WorkItem, []result) {
	results := make([]result, len(batch.Items))
	texts := make([]string, len(batch.Items))
	ok := make([]bool, len(batch.Items))

	var g errgroup.Group
	g.SetLimit(r.cfg.TextConcurrency)
	for i, item := range batch.Items {
		g.Go(func() error {
			texts[i], results[i], ok[i] = r.extractText(batch, item)
			return nil
		})
	}
	_ = g.Wait()

	var (
		ready   []WorkItem
		dropped []result
	)
	for i, item := range batch.Items {
		if !ok[i] {
			dropped = append(dropped, results[i])
			continue
		}
		item.Text = texts[i]
		ready = append(ready, item)
	}

	return ready, dropped
}

func (r *Runner) extractText(batch Batch, item WorkItem) (string, result, bool) {
	text, err := r.deps.Extract(item.Path)
	if err != nil {
		return "", result{Outcome: failed(item, batch.Position, err), stage: stageText}, false
	}
	if strings.TrimSpace(text) == "" {
		return "", result{Outcome: empty(item, batch.Position), stage: stageText}, false
	}
	return text, result{}, true
}

func (r *Runner) process(ctx context.Context, log *zap.Logger, batch Batch, item WorkItem) result {
	record, err := r.infer(ctx, batch.JobDescription, item)
	if err != nil {
		return result{Outcome: failed(item, batch.Position, err), stage: stageInfer}
	}
	item.Record = record

	if err := r.storeSlots.Acquire(ctx, 1); err != nil {
		return result{Outcome: failed(item, batch.Position, err), stage: stageStore}
	}
	defer r.storeSlots.Release(1)

	if r.deps.Store.Exists(ctx, record.Email, record.JobPositionTitle) {
		return result{Outcome: duplicate(item, batch.Position), stage: stageStore}
	}

	pageID, err := r.deps.Store.Create(ctx, record, item.Path)
	if err != nil {
		return result{Outcome: failed(item, batch.Position, err), stage: stageStore}
	}
	if pageID == "" {
		return result{Outcome: failed(item, batch.Position, ErrNoPageID), stage: stageStore}
	}

	if batch.Log != nil {
		if err := batch.Log.Append(item.Name); err != nil {
			log.Warn("could not append to processed log, the file will be retried on the next run",
				zap.String(logger.FieldFile, item.Name),
				zap.Error(err),
			)
		}
	}

	return result{Outcome: success(item, batch.Position, pageID), stage: stageStore}
}

// infer holds an extraction service slot only for the duration of the call.
func (r *Runner) infer(ctx context.Context, jobDescription string, item WorkItem) (*candidate.Record, error) {
	if err := r.aiSlots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.aiSlots.Release(1)

	record, err := r.deps.AI.Infer(ctx, item.Text, jobDescription)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("extraction service returned no record")
	}
	return record, nil
}

func logOutcome(log *zap.Logger, o Outcome) {
	fields := []zap.Field{
		zap.String(logger.FieldFile, o.FileName),
		zap.String("status", string(o.Status)),
	}

	switch o.Status {
	case StatusSuccess:
		log.Info("candidate stored", append(fields, zap.String("page_id", o.PageID))...)
	case StatusDuplicate:
		log.Info("duplicate candidate skipped", append(fields, zap.String("email", o.Record.Email))...)
	case StatusEmpty:
		log.Warn("no text extracted, skipping file", fields...)
	case StatusFailed:
		log.Error("processing failed", append(fields, zap.Error(o.Err))...)
	}
}
