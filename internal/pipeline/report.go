package pipeline

import (
	"fmt"
	"sort"

	"github.com/spigell/cv-screener/internal/candidate"
)

// Report aggregates the outcomes of one position or of a whole scan.
type Report struct {
	// Total is the number of CV files discovered, including already processed ones.
	Total int
	// Processed counts items that reached a terminal outcome other than StatusEmpty.
	Processed  int
	Succeeded  int
	Duplicates int
	Failed     int
	Empty      int

	FailedFiles    []string
	DuplicateFiles []string
	// Failures maps a failed item label to its error message.
	Failures map[string]string
	// Candidates holds the records stored by successful items.
	Candidates []*candidate.Record
	// SkippedPositions maps a position name to the reason it was not run.
	SkippedPositions map[string]string
}

// Add folds one outcome into the report.
func (r *Report) Add(o Outcome) {
	switch o.Status {
	case StatusSuccess:
		r.Processed++
		r.Succeeded++
		if o.Record != nil {
			r.Candidates = append(r.Candidates, o.Record)
		}
	case StatusDuplicate:
		r.Processed++
		r.Duplicates++
		r.DuplicateFiles = append(r.DuplicateFiles, o.Label())
	case StatusFailed:
		r.Processed++
		r.Failed++
		r.FailedFiles = append(r.FailedFiles, o.Label())
		if r.Failures == nil {
			r.Failures = make(map[string]string)
		}
		msg := "unknown error"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		r.Failures[o.Label()] = msg
	case StatusEmpty:
		r.Empty++
	}
}

// Merge adds the counters and lists of other to r.
func (r *Report) Merge(other Report) {
	r.Total += other.Total
	r.Processed += other.Processed
	r.Succeeded += other.Succeeded
	r.Duplicates += other.Duplicates
	r.Failed += other.Failed
	r.Empty += other.Empty

	r.FailedFiles = append(r.FailedFiles, other.FailedFiles...)
	r.DuplicateFiles = append(r.DuplicateFiles, other.DuplicateFiles...)
	r.Candidates = append(r.Candidates, other.Candidates...)

	for label, msg := range other.Failures {
		if r.Failures == nil {
			r.Failures = make(map[string]string)
		}
		r.Failures[label] = msg
	}
	for name, reason := range other.SkippedPositions {
		r.Skip(name, reason)
	}
}

// Skip records a position that was not run.
func (r *Report) Skip(position, reason string) {
	if r.SkippedPositions == nil {
		r.SkippedPositions = make(map[string]string)
	}
	r.SkippedPositions[position] = reason
}

// NotProcessed is the number of discovered files without an outcome in this run.
func (r *Report) NotProcessed() int {
	return r.Total - r.Processed
}

// HasFailures reports whether any item failed.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// Summary renders the report as the lines of the console summary panel.
func (r *Report) Summary(databaseURL string) []string {
	lines := []string{
		"Processing Complete",
		fmt.Sprintf("%d/%d files processed", r.Processed, r.Total),
		fmt.Sprintf("%d uploaded to Notion", r.Succeeded),
		fmt.Sprintf("%d duplicates skipped", r.Duplicates),
		fmt.Sprintf("%d failed", r.Failed),
	}
	if n := r.NotProcessed(); n > 0 {
		lines = append(lines, fmt.Sprintf("%d files were not processed", n))
	}
	if databaseURL != "" {
		lines = append(lines, "Notion Database URL: "+databaseURL)
	}

	if len(r.FailedFiles) > 0 {
		lines = append(lines, "", "Failed files:")
		for _, label := range r.FailedFiles {
			lines = append(lines, fmt.Sprintf("  - %s: %s", label, r.Failures[label]))
		}
	}
	if len(r.DuplicateFiles) > 0 {
		lines = append(lines, "", "Duplicate files:")
		for _, label := range r.DuplicateFiles {
			lines = append(lines, "  - "+label)
		}
	}
	if len(r.SkippedPositions) > 0 {
		names := make([]string, 0, len(r.SkippedPositions))
		for name := range r.SkippedPositions {
			names = append(names, name)
		}
		sort.Strings(names)

		lines = append(lines, "", "Skipped positions:")
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  - %s: %s", name, r.SkippedPositions[name]))
		}
	}

	return lines
}
