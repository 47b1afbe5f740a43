package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/processedlog"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	block chan struct{}
}

func (r *fakeRunner) RunOne(ctx context.Context, position, jobDescription, path string, log pipeline.ProcessedLog) pipeline.Outcome {
	r.mu.Lock()
	r.calls = append(r.calls, position+"/"+filepath.Base(path)+"|"+jobDescription)
	r.mu.Unlock()

	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}

	name := filepath.Base(path)
	if err := log.Append(name); err != nil {
		return pipeline.Outcome{Status: pipeline.StatusFailed, Position: position, FileName: name, Err: err}
	}
	return pipeline.Outcome{Status: pipeline.StatusSuccess, Position: position, FileName: name, PageID: "page-1"}
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestWatcher(t *testing.T, root string, runner Runner, cfg Config, onOutcome func(pipeline.Outcome)) *Watcher {
	t.Helper()

	cfg.Root = root
	w, err := New(cfg, Deps{Runner: runner, Extract: readText, Logger: zap.NewNop(), OnOutcome: onOutcome})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	return w
}

func TestIsCandidate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root, &fakeRunner{}, Config{}, nil)

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "go", "CVs", "a.pdf"), true},
		{filepath.Join(root, "go", "CVs", "b.DOCX"), true},
		{filepath.Join(root, "go", "CVs", "notes.txt"), false},
		{filepath.Join(root, "go", "CVs", ".a.pdf"), false},
		{filepath.Join(root, "go", "CVs", "~$b.docx"), false},
		{filepath.Join(root, "go", "jd.pdf"), false},
		{filepath.Join(root, "go", "CVs", "old", "c.pdf"), false},
		{filepath.Join(root, "a", "b", "CVs", "d.pdf"), false},
		{filepath.Join(root, "go", "Resumes", "e.pdf"), false},
		{filepath.Join(filepath.Dir(root), "x", "CVs", "f.pdf"), false},
	}

	for _, tt := range tests {
		if got := w.isCandidate(tt.path); got != tt.want {
			t.Fatalf("isCandidate(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setup     func(t *testing.T, root string)
		wantCalls int
	}{
		{
			name: "new file is processed",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "go", "jd.pdf"), "Go Engineer")
			},
			wantCalls: 1,
		},
		{
			name: "already processed",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "go", "jd.pdf"), "Go Engineer")
				writeFile(t, filepath.Join(root, "go", processedlog.FileName), "a.pdf\n")
			},
		},
		{
			name:  "missing job description",
			setup: func(t *testing.T, root string) {},
		},
		{
			name: "two job descriptions",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "go", "jd.pdf"), "Go Engineer")
				writeFile(t, filepath.Join(root, "go", "jd-2.docx"), "Go Engineer")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			cv := filepath.Join(root, "go", "CVs", "a.pdf")
			writeFile(t, cv, "a@x.io")
			tt.setup(t, root)

			runner := &fakeRunner{}
			var outcomes []pipeline.Outcome
			w := newTestWatcher(t, root, runner, Config{}, func(o pipeline.Outcome) { outcomes = append(outcomes, o) })

			w.handle(context.Background(), cv)

			if got := runner.callCount(); got != tt.wantCalls {
				t.Fatalf("expected %d runner calls, got %d", tt.wantCalls, got)
			}
			if len(outcomes) != tt.wantCalls {
				t.Fatalf("expected %d outcomes, got %d", tt.wantCalls, len(outcomes))
			}
			if tt.wantCalls == 1 {
				if runner.calls[0] != "go/a.pdf|Go Engineer" {
					t.Fatalf("unexpected call %q", runner.calls[0])
				}
				report := w.Report()
				if report.Total != 1 || report.Succeeded != 1 {
					t.Fatalf("unexpected report %+v", report)
				}
			}
		})
	}
}

func TestRunItemTimeout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &fakeRunner{block: make(chan struct{})}
	defer close(runner.block)

	w := newTestWatcher(t, root, runner, Config{Timeout: 20 * time.Millisecond}, nil)
	plog := processedlog.New(filepath.Join(root, "go"))

	start := time.Now()
	outcome := w.runItem(context.Background(), "go", "jd", filepath.Join(root, "go", "CVs", "slow.pdf"), plog)

	if outcome.Status != pipeline.StatusFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, ErrItemTimeout) {
		t.Fatalf("expected ErrItemTimeout, got %v", outcome.Err)
	}
	if outcome.FileName != "slow.pdf" || outcome.Position != "go" {
		t.Fatalf("unexpected outcome identity %+v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

// cancelAwareRunner fails with the context error once its context ends.
type cancelAwareRunner struct{}

func (cancelAwareRunner) RunOne(ctx context.Context, position, _, path string, _ pipeline.ProcessedLog) pipeline.Outcome {
	<-ctx.Done()
	return pipeline.Outcome{Status: pipeline.StatusFailed, Position: position, FileName: filepath.Base(path), Err: ctx.Err()}
}

func TestRunItemTimeoutWinsOverContextError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root, cancelAwareRunner{}, Config{Timeout: time.Millisecond}, nil)
	plog := processedlog.New(filepath.Join(root, "go"))

	for i := 0; i < 100; i++ {
		outcome := w.runItem(context.Background(), "go", "jd", filepath.Join(root, "go", "CVs", "slow.pdf"), plog)

		if outcome.Status != pipeline.StatusFailed {
			t.Fatalf("run %d: expected failed outcome, got %s", i, outcome.Status)
		}
		if !errors.Is(outcome.Err, ErrItemTimeout) {
			t.Fatalf("run %d: expected ErrItemTimeout, got %v", i, outcome.Err)
		}
	}
}

func TestRunItemParentCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root, cancelAwareRunner{}, Config{Timeout: time.Hour}, nil)
	plog := processedlog.New(filepath.Join(root, "go"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := w.runItem(ctx, "go", "jd", filepath.Join(root, "go", "CVs", "a.pdf"), plog)
	if outcome.Status != pipeline.StatusFailed || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("expected failure with context.Canceled, got %+v", outcome)
	}
	if errors.Is(outcome.Err, ErrItemTimeout) {
		t.Fatalf("parent cancellation must not be reported as a timeout")
	}
}

func TestEnqueueCoalescesDuplicates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root, &fakeRunner{}, Config{QueueSize: 4}, nil)

	path := filepath.Join(root, "go", "CVs", "a.pdf")
	w.enqueue(context.Background(), path)
	w.enqueue(context.Background(), path)
	w.enqueue(context.Background(), filepath.Join(root, "go", "CVs", "notes.txt"))

	if got := len(w.queue); got != 1 {
		t.Fatalf("expected one queued path, got %d", got)
	}

	<-w.queue
	w.dequeue(path)
	w.enqueue(context.Background(), path)
	if got := len(w.queue); got != 1 {
		t.Fatalf("expected path to be queued again after handling, got %d", got)
	}
}

func TestRunPicksUpNewFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go", "jd.pdf"), "Go Engineer")
	if err := os.MkdirAll(filepath.Join(root, "go", "CVs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	outcomes := make(chan pipeline.Outcome, 10)
	runner := &fakeRunner{}
	w := newTestWatcher(t, root, runner, Config{Debounce: 10 * time.Millisecond, Timeout: 5 * time.Second},
		func(o pipeline.Outcome) { outcomes <- o })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-w.started:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	writeFile(t, filepath.Join(root, "go", "CVs", "a.pdf"), "a@x.io")
	writeFile(t, filepath.Join(root, "go", "CVs", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, "rust", "jd.docx"), "Rust Engineer")
	writeFile(t, filepath.Join(root, "rust", "CVs", "b.pdf"), "b@x.io")

	var got []string
	deadline := time.After(10 * time.Second)
	for len(got) < 2 {
		select {
		case o := <-outcomes:
			if o.Status != pipeline.StatusSuccess {
				t.Fatalf("unexpected outcome %+v", o)
			}
			got = append(got, o.Label())
		case <-deadline:
			t.Fatalf("timed out waiting for outcomes, got %v", got)
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	sort.Strings(got)
	if diff := cmp.Diff([]string{"go/a.pdf", "rust/b.pdf"}, got); diff != "" {
		t.Fatalf("unexpected outcomes (-want +got):\n%s", diff)
	}
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}, Deps{Runner: &fakeRunner{}}); err == nil {
		t.Fatal("expected error without root")
	}
	if _, err := New(Config{Root: t.TempDir()}, Deps{}); err == nil {
		t.Fatal("expected error without runner")
	}

	w, err := New(Config{Root: t.TempDir()}, Deps{Runner: &fakeRunner{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", w.cfg.Timeout)
	}
}
