package processedlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the per-position log of résumé file names already stored.
const FileName = ".processed_files.log"

// Log is an append-only list of file names. It is never rewritten and never
// locked; concurrent appends of whole lines are safe and duplicates are harmless.
type Log struct {
	path string
}

// New returns the log kept inside the position directory dir.
func New(dir string) *Log {
	return &Log{path: filepath.Join(dir, FileName)}
}

// Read returns every file name in the log. A missing log is an empty set.
func (l *Log) Read() (map[string]struct{}, error) {
	processed := make(map[string]struct{})

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return processed, nil
		}
		return nil, fmt.Errorf("open processed log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		processed[name] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read processed log: %w", err)
	}

	return processed, nil
}

// Contains re-reads the log and reports whether name is present.
func (l *Log) Contains(name string) (bool, error) {
	processed, err := l.Read()
	if err != nil {
		return false, err
	}
	_, ok := processed[name]
	return ok, nil
}

// Append adds name as one line with a single write.
func (l *Log) Append(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("processed log: empty file name")
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open processed log for append: %w", err)
	}

	if _, err := f.WriteString(name + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to processed log: %w", err)
	}

	return f.Close()
}
