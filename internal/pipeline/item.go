package pipeline

import (
	"path/filepath"

	"github.com/spigell/cv-screener/internal/candidate"
)

// Status is the terminal state of one work item.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
	// StatusEmpty marks an item dropped after text extraction produced no text.
	// It is neither processed nor failed.
	StatusEmpty Status = "empty"
)

// WorkItem is one CV file moving through the phases of a run.
type WorkItem struct {
	Path   string
	Name   string
	Text   string
	Record *candidate.Record
}

// NewWorkItem returns an item for the CV at path.
func NewWorkItem(path string) WorkItem {
	return WorkItem{Path: path, Name: filepath.Base(path)}
}

// Outcome is the result of one work item.
type Outcome struct {
	Status   Status
	Position string
	FileName string
	// Record is set for StatusSuccess and StatusDuplicate.
	Record *candidate.Record
	// PageID is the store row id for StatusSuccess.
	PageID string
	// Err is set for StatusFailed.
	Err error
}

// Label identifies the item in reports.
func (o Outcome) Label() string {
	if o.Position == "" {
		return o.FileName
	}
	return o.Position + "/" + o.FileName
}

func success(item WorkItem, position, pageID string) Outcome {
	return Outcome{Status: StatusSuccess, Position: position, FileName: item.Name, Record: item.Record, PageID: pageID}
}

func duplicate(item WorkItem, position string) Outcome {
	return Outcome{Status: StatusDuplicate, Position: position, FileName: item.Name, Record: item.Record}
}

func failed(item WorkItem, position string, err error) Outcome {
	return Outcome{Status: StatusFailed, Position: position, FileName: item.Name, Err: err}
}

func empty(item WorkItem, position string) Outcome {
	return Outcome{Status: StatusEmpty, Position: position, FileName: item.Name}
}
