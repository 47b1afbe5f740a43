package export

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/spigell/cv-screener/internal/candidate"
)

type valuesService interface {
	HasValues(ctx context.Context, spreadsheetID, readRange string) (bool, error)
	AppendValues(ctx context.Context, spreadsheetID, writeRange string, values [][]interface{}) error
}

// Sheets appends candidates to a Google Sheets spreadsheet.
type Sheets struct {
	values valuesService
	sheet  string
}

// NewSheets authenticates with a service account credentials file.
func NewSheets(ctx context.Context, credentialsPath, sheet string) (*Sheets, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("sheets: credentials path is required")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	if sheet == "" {
		sheet = SheetName
	}

	return &Sheets{values: &sheetsValues{service: service}, sheet: sheet}, nil
}

// Append writes the header when the sheet is empty, then one row per candidate.
func (s *Sheets) Append(ctx context.Context, spreadsheetID string, records []*candidate.Record) error {
	if spreadsheetID == "" {
		return fmt.Errorf("sheets: spreadsheet id is required")
	}

	data := rows(records)
	if len(data) == 0 {
		return nil
	}

	var values [][]interface{}

	hasHeader, err := s.values.HasValues(ctx, spreadsheetID, s.sheet+"!A1:A1")
	if err != nil {
		return fmt.Errorf("sheets: read header: %w", err)
	}
	if !hasHeader {
		values = append(values, toInterfaces(candidate.Fields()))
	}
	for _, row := range data {
		values = append(values, toInterfaces(row))
	}

	if err := s.values.AppendValues(ctx, spreadsheetID, s.sheet+"!A1", values); err != nil {
		return fmt.Errorf("sheets: append rows: %w", err)
	}
	return nil
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

type sheetsValues struct {
	service *sheets.Service
}

func (v *sheetsValues) HasValues(ctx context.Context, spreadsheetID, readRange string) (bool, error) {
	resp, err := v.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return len(resp.Values) > 0, nil
}

func (v *sheetsValues) AppendValues(ctx context.Context, spreadsheetID, writeRange string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := v.service.Spreadsheets.Values.Append(spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}
