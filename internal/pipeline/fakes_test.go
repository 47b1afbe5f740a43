package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spigell/cv-screener/internal/candidate"
)

// inFlight tracks the current and the highest number of concurrent calls.
type inFlight struct {
	current atomic.Int64
	max     atomic.Int64
}

func (f *inFlight) enter() {
	n := f.current.Add(1)
	for {
		m := f.max.Load()
		if n <= m || f.max.CompareAndSwap(m, n) {
			return
		}
	}
}

func (f *inFlight) leave() { f.current.Add(-1) }

type fakeTexts map[string]string

func (f fakeTexts) extract(path string) (string, error) {
	text, ok := f[filepath.Base(path)]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, errors.New("file not found"))
	}
	return text, nil
}

type fakeAI struct {
	delay    time.Duration
	failures map[string]error
	calls    atomic.Int64
	flight   inFlight
}

// Infer treats the CV text as the candidate email.
func (f *fakeAI) Infer(_ context.Context, cvText, jdText string) (*candidate.Record, error) {
	f.calls.Add(1)
	f.flight.enter()
	defer f.flight.leave()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.failures[cvText]; ok {
		return nil, err
	}
	return &candidate.Record{
		FullName:         cvText,
		Email:            cvText,
		Gender:           candidate.GenderUnknown,
		DateOfBirth:      candidate.NotAvailable,
		MatchScore:       70,
		RankingCategory:  candidate.RankingMedium,
		JobPositionTitle: jdText,
	}, nil
}

type fakeStore struct {
	delay      time.Duration
	duplicates map[string]bool
	createErrs map[string]error
	noID       map[string]bool

	mu      sync.Mutex
	exists  []string
	created []string
	flight  inFlight
}

func (f *fakeStore) Exists(_ context.Context, email, positionTitle string) bool {
	f.flight.enter()
	defer f.flight.leave()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = append(f.exists, email+"|"+positionTitle)
	return f.duplicates[email]
}

func (f *fakeStore) Create(_ context.Context, record *candidate.Record, filePath string) (string, error) {
	f.flight.enter()
	defer f.flight.leave()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, record.Email)
	if err, ok := f.createErrs[record.Email]; ok {
		return "", err
	}
	if f.noID[record.Email] {
		return "", nil
	}
	return "page-" + filepath.Base(filePath), nil
}

func (f *fakeStore) createdEmails() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

type memLog struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (l *memLog) Append(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.names = append(l.names, name)
	return nil
}

func (l *memLog) entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}
