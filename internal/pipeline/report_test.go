package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spigell/cv-screener/internal/candidate"
)

func TestReportFoldIsOrderIndependent(t *testing.T) {
	t.Parallel()

	outcomes := []Outcome{
		{Status: StatusSuccess, Position: "go", FileName: "a.pdf", Record: &candidate.Record{Email: "a@x.io"}},
		{Status: StatusDuplicate, Position: "go", FileName: "b.pdf", Record: &candidate.Record{Email: "b@x.io"}},
		{Status: StatusFailed, Position: "go", FileName: "c.pdf", Err: errors.New("boom")},
		{Status: StatusEmpty, Position: "go", FileName: "d.pdf"},
	}

	var forward, backward Report
	for i := range outcomes {
		forward.Add(outcomes[i])
		backward.Add(outcomes[len(outcomes)-1-i])
	}

	counts := func(r Report) []int {
		return []int{r.Processed, r.Succeeded, r.Duplicates, r.Failed, r.Empty}
	}
	if diff := cmp.Diff(counts(forward), counts(backward)); diff != "" {
		t.Fatalf("counts depend on order (-forward +backward):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 1, 1, 1, 1}, counts(forward)); diff != "" {
		t.Fatalf("unexpected counts (-want +got):\n%s", diff)
	}
}

func TestReportMerge(t *testing.T) {
	t.Parallel()

	first := Report{Total: 3}
	first.Add(Outcome{Status: StatusSuccess, Position: "go", FileName: "a.pdf", Record: &candidate.Record{}})
	first.Add(Outcome{Status: StatusFailed, Position: "go", FileName: "b.pdf", Err: errors.New("boom")})

	second := Report{Total: 2}
	second.Add(Outcome{Status: StatusDuplicate, Position: "rust", FileName: "a.pdf", Record: &candidate.Record{}})
	second.Skip("design", "expected exactly one job description file, found 0")

	var overall Report
	overall.Merge(first)
	overall.Merge(second)

	if overall.Total != 5 || overall.Processed != 3 || overall.Succeeded != 1 || overall.Duplicates != 1 || overall.Failed != 1 {
		t.Fatalf("unexpected report %+v", overall)
	}
	if overall.NotProcessed() != 2 {
		t.Fatalf("expected 2 unprocessed, got %d", overall.NotProcessed())
	}
	if diff := cmp.Diff(map[string]string{"go/b.pdf": "boom"}, overall.Failures); diff != "" {
		t.Fatalf("unexpected failures (-want +got):\n%s", diff)
	}
	if _, ok := overall.SkippedPositions["design"]; !ok {
		t.Fatal("expected skipped position to be merged")
	}
	if !overall.HasFailures() {
		t.Fatal("expected HasFailures")
	}
}

func TestReportSummary(t *testing.T) {
	t.Parallel()

	report := Report{Total: 4}
	report.Add(Outcome{Status: StatusSuccess, FileName: "a.pdf", Record: &candidate.Record{}})
	report.Add(Outcome{Status: StatusDuplicate, FileName: "b.pdf", Record: &candidate.Record{}})
	report.Add(Outcome{Status: StatusFailed, FileName: "c.pdf", Err: errors.New("quota exceeded")})

	want := []string{
		"Processing Complete",
		"3/4 files processed",
		"1 uploaded to Notion",
		"1 duplicates skipped",
		"1 failed",
		"1 files were not processed",
		"Notion Database URL: https://notion.so/abc",
		"",
		"Failed files:",
		"  - c.pdf: quota exceeded",
		"",
		"Duplicate files:",
		"  - b.pdf",
	}
	if diff := cmp.Diff(want, report.Summary("https://notion.so/abc")); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}
}

func TestReportSummaryHidesZeroNotProcessed(t *testing.T) {
	t.Parallel()

	report := Report{Total: 1}
	report.Add(Outcome{Status: StatusSuccess, FileName: "a.pdf", Record: &candidate.Record{}})

	for _, line := range report.Summary("") {
		if line == "0 files were not processed" {
			t.Fatal("zero not-processed line must be omitted")
		}
	}
}
