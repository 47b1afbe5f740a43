package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/processedlog"
	"github.com/spigell/cv-screener/internal/scanner"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	DefaultDebounce  = 2 * time.Second
	DefaultTimeout   = 300 * time.Second
	defaultQueueSize = 256
)

// ErrItemTimeout is the failure recorded for an item that did not finish in time.
var ErrItemTimeout = errors.New("item processing timed out")

// Runner runs a single CV through the pipeline.
type Runner interface {
	RunOne(ctx context.Context, position, jobDescription, path string, log pipeline.ProcessedLog) pipeline.Outcome
}

type Config struct {
	Root string
	// Debounce is the delay between the create event and reading the file.
	Debounce time.Duration
	// Timeout bounds the wait for one item.
	Timeout   time.Duration
	QueueSize int
}

type Deps struct {
	Runner  Runner
	Extract extract.Func
	Logger  *zap.Logger
	// OnOutcome is called from the consumer loop after every handled item.
	OnOutcome func(pipeline.Outcome)
}

// Watcher feeds newly created CV files to the pipeline. An fsnotify goroutine
// only enqueues paths; the consumer loop in Run is the only place running
// pipeline work.
type Watcher struct {
	cfg    Config
	deps   Deps
	root   string
	logger *zap.Logger

	queue chan string

	mu     sync.Mutex
	queued map[string]struct{}
	report pipeline.Report

	// started is closed once the initial watches are installed.
	started chan struct{}
}

func New(cfg Config, deps Deps) (*Watcher, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("watcher: root is required")
	}
	if deps.Runner == nil {
		return nil, errors.New("watcher: runner is required")
	}
	if deps.Extract == nil {
		deps.Extract = extract.Text
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve root: %w", err)
	}

	return &Watcher{
		cfg:     cfg,
		deps:    deps,
		root:    filepath.Clean(root),
		logger:  logger.WithFields(deps.Logger, zap.String("root", root)),
		queue:   make(chan string, cfg.QueueSize),
		queued:  make(map[string]struct{}),
		started: make(chan struct{}),
	}, nil
}

// Run watches the tree until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(ctx, fsw, w.root, false); err != nil {
		return err
	}
	close(w.started)

	w.logger.Info("watching for new CV files",
		zap.Duration("debounce", w.cfg.Debounce),
		zap.Duration("item_timeout", w.cfg.Timeout),
	)

	go w.produce(ctx, fsw)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case path := <-w.queue:
			w.handle(ctx, path)
			w.dequeue(path)
		}
	}
}

// Report returns the outcomes handled so far.
func (w *Watcher) Report() pipeline.Report {
	w.mu.Lock()
	defer w.mu.Unlock()

	var r pipeline.Report
	r.Merge(w.report)
	return r
}

func (w *Watcher) produce(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// Files may land in a new directory before its watch exists.
				if err := w.addRecursive(ctx, fsw, event.Name, true); err != nil {
					w.logger.Warn("could not watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
				continue
			}

			w.enqueue(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fs watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) addRecursive(ctx context.Context, fsw *fsnotify.Watcher, dir string, enqueueFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if enqueueFiles {
				w.enqueue(ctx, path)
			}
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// enqueue drops paths that are not CV files or are already waiting.
func (w *Watcher) enqueue(ctx context.Context, path string) {
	if !w.isCandidate(path) {
		return
	}

	w.mu.Lock()
	if _, ok := w.queued[path]; ok {
		w.mu.Unlock()
		return
	}
	w.queued[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.queue <- path:
	case <-ctx.Done():
		w.dequeue(path)
	}
}

func (w *Watcher) dequeue(path string) {
	w.mu.Lock()
	delete(w.queued, path)
	w.mu.Unlock()
}

// isCandidate accepts <root>/<position>/CVs/<file> with a supported extension.
func (w *Watcher) isCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || !extract.Supported(name) {
		return false
	}

	cvDir := filepath.Dir(path)
	if filepath.Base(cvDir) != scanner.CVDirName {
		return false
	}

	return filepath.Dir(filepath.Dir(cvDir)) == w.root
}

func (w *Watcher) handle(ctx context.Context, path string) {
	positionDir := filepath.Dir(filepath.Dir(path))
	position := filepath.Base(positionDir)
	name := filepath.Base(path)
	log := w.logger.With(logger.ItemFields(position, name)...)

	log.Info("new CV file detected")

	if err := utils.WaitFor(ctx, w.cfg.Debounce); err != nil {
		return
	}

	if _, err := os.Stat(path); err != nil {
		log.Warn("file is gone, skipping", zap.Error(err))
		return
	}

	plog := processedlog.New(positionDir)
	done, err := plog.Contains(name)
	if err != nil {
		log.Warn("could not read processed log, skipping", zap.Error(err))
		return
	}
	if done {
		log.Info("file already processed, skipping")
		return
	}

	jdText, err := scanner.JobDescriptionText(positionDir, w.deps.Extract)
	if err != nil {
		log.Warn("no usable job description, skipping", zap.Error(err))
		return
	}

	outcome := w.runItem(ctx, position, jdText, path, plog)

	w.mu.Lock()
	w.report.Total++
	w.report.Add(outcome)
	w.mu.Unlock()

	if w.deps.OnOutcome != nil {
		w.deps.OnOutcome(outcome)
	}
}

// runItem waits for the item or the deadline, whichever comes first. The
// item context is cancelled on timeout, so in-flight calls stop with it. A
// result racing the deadline is kept only when it succeeded.
func (w *Watcher) runItem(ctx context.Context, position, jdText, path string, plog pipeline.ProcessedLog) pipeline.Outcome {
	itemCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	result := make(chan pipeline.Outcome, 1)
	go func() {
		result <- w.deps.Runner.RunOne(itemCtx, position, jdText, path, plog)
	}()

	select {
	case outcome := <-result:
		if outcome.Status == pipeline.StatusSuccess || itemCtx.Err() == nil {
			return outcome
		}
	case <-itemCtx.Done():
		if ctx.Err() == nil {
			select {
			case outcome := <-result:
				if outcome.Status == pipeline.StatusSuccess {
					return outcome
				}
			default:
			}
		}
	}

	err := fmt.Errorf("%w after %s", ErrItemTimeout, w.cfg.Timeout)
	if ctx.Err() != nil {
		err = ctx.Err()
	}

	w.logger.Error("processing failed",
		zap.String(logger.FieldPosition, position),
		zap.String(logger.FieldFile, filepath.Base(path)),
		zap.Error(err),
	)

	return pipeline.Outcome{
		Status:   pipeline.StatusFailed,
		Position: position,
		FileName: filepath.Base(path),
		Err:      err,
	}
}
