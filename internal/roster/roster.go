// Package roster parses employee roster files into normalized import
// records. Two source formats are supported: the JSON export of the HR
// system and XLSX workbooks. Category labels are normalized here, at the
// ingestion boundary, so everything downstream only ever sees the canonical
// codes.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/shiftvote/internal/application"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither JSON nor
	// XLSX.
	ErrUnsupportedFormat = errors.New("roster: unsupported file format")
	// ErrEmptyRoster is returned when a file parses but yields no usable
	// records.
	ErrEmptyRoster = errors.New("roster: no employee records found")
)

// categoryLabels maps every accepted source label to its canonical code.
// The HR exports use the numeric codes; older hand-maintained sheets carry
// the legacy text labels.
var categoryLabels = map[string]application.Category{
	"2000": application.CategoryFixed,
	"RR":   application.CategoryFixed,
	"3000": application.CategoryRotating,
	"輪班":   application.CategoryRotating,
}

// NormalizeCategory maps a raw shift label to its canonical category.
func NormalizeCategory(raw string) (application.Category, bool) {
	category, ok := categoryLabels[strings.ToUpper(strings.TrimSpace(raw))]
	return category, ok
}

// record mirrors one entry of the HR JSON export.
type record struct {
	EmpID    string `json:"工號"`
	Name     string `json:"姓名"`
	Category string `json:"班別"`
}

// ParseError reports a record that could not be normalized.
type ParseError struct {
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("roster: row %d: %s", e.Row, e.Reason)
}

// Result carries the parsed records plus the rows that were dropped.
type Result struct {
	Records []application.EmployeeInput
	Dropped []ParseError
}

// ParseJSON decodes the HR JSON export. Records with a blank employee id or
// an unrecognized shift label are dropped and reported, not fatal.
func ParseJSON(r io.Reader) (Result, error) {
	var raw []record
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("roster: decode json: %w", err)
	}

	result := normalize(raw)
	if len(result.Records) == 0 {
		return result, ErrEmptyRoster
	}
	return result, nil
}

// ParseXLSX reads the first sheet of an XLSX workbook. The sheet must carry
// a header row naming the 工號, 姓名 and 班別 columns; column order does not
// matter.
func ParseXLSX(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("roster: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, ErrEmptyRoster
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("roster: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return Result{}, ErrEmptyRoster
	}

	idCol, nameCol, categoryCol := -1, -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case "工號":
			idCol = i
		case "姓名":
			nameCol = i
		case "班別":
			categoryCol = i
		}
	}
	if idCol < 0 || nameCol < 0 || categoryCol < 0 {
		return Result{}, fmt.Errorf("roster: sheet %s is missing the 工號/姓名/班別 header row", sheets[0])
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return row[col]
		}
		return ""
	}

	raw := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw = append(raw, record{
			EmpID:    cell(row, idCol),
			Name:     cell(row, nameCol),
			Category: cell(row, categoryCol),
		})
	}

	result := normalize(raw)
	if len(result.Records) == 0 {
		return result, ErrEmptyRoster
	}
	return result, nil
}

// LoadFile parses a roster file, dispatching on its extension.
func LoadFile(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return Result{}, fmt.Errorf("roster: open %s: %w", path, err)
		}
		defer f.Close()
		return ParseJSON(f)
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return Result{}, fmt.Errorf("roster: open %s: %w", path, err)
		}
		defer f.Close()
		return ParseXLSX(f)
	default:
		return Result{}, ErrUnsupportedFormat
	}
}

func normalize(raw []record) Result {
	var result Result
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		row := i + 1
		empID := strings.TrimSpace(r.EmpID)
		if empID == "" {
			result.Dropped = append(result.Dropped, ParseError{Row: row, Reason: "blank employee id"})
			continue
		}
		if seen[empID] {
			result.Dropped = append(result.Dropped, ParseError{Row: row, Reason: fmt.Sprintf("duplicate employee id %s", empID)})
			continue
		}
		category, ok := NormalizeCategory(r.Category)
		if !ok {
			result.Dropped = append(result.Dropped, ParseError{Row: row, Reason: fmt.Sprintf("unrecognized shift label %q", r.Category)})
			continue
		}
		seen[empID] = true
		result.Records = append(result.Records, application.EmployeeInput{
			EmpID:    empID,
			Name:     strings.TrimSpace(r.Name),
			Category: category,
		})
	}
	return result
}
