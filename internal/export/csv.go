package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spigell/cv-screener/internal/candidate"
)

// WriteCSV writes the header and one row per candidate.
func WriteCSV(w io.Writer, records []*candidate.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(candidate.Fields()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows(records)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
