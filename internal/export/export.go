package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/cv-screener/internal/candidate"
)

// ErrUnsupportedFormat is returned for output paths other than .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ToFile writes one row per candidate to path. The format follows the extension.
func ToFile(path string, records []*candidate.Record) error {
	path = filepath.Clean(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create csv export: %w", err)
		}
		if err := WriteCSV(f, records); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return WriteXLSX(path, records)
	default:
		return fmt.Errorf("%s: %w (use .csv or .xlsx)", path, ErrUnsupportedFormat)
	}
}

func rows(records []*candidate.Record) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		out = append(out, r.Values())
	}
	return out
}
