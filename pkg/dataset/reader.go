// Package dataset reads the (input, correction) example spreadsheet.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	ColumnInput      = "input"
	ColumnCorrection = "correction"
)

// Row is one example from the spreadsheet. Index is its position among the
// data rows, header excluded.
type Row struct {
	Index      int
	Input      string
	Correction string
}

// Load reads every example row from an .xlsx or .csv file. The first
// non-blank row must be a header naming the input and correction columns.
func Load(path string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, errors.Errorf("unsupported dataset format %q (use .xlsx or .csv)", ext)
	}
	if err != nil {
		return nil, err
	}

	rows, err := FromRecords(records)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %s", path)
	}
	return rows, nil
}

// FromRecords converts raw table records into rows. Fully blank records are
// skipped; cells are trimmed and NFC-normalised.
func FromRecords(records [][]string) ([]Row, error) {
	inputCol, correctionCol := -1, -1
	headerSeen := false

	var rows []Row
	for _, record := range records {
		if isBlank(record) {
			continue
		}

		if !headerSeen {
			headerSeen = true
			for i, name := range record {
				switch strings.ToLower(strings.TrimSpace(name)) {
				case ColumnInput:
					inputCol = i
				case ColumnCorrection:
					correctionCol = i
				}
			}
			if inputCol < 0 || correctionCol < 0 {
				return nil, errors.Errorf("header must contain %q and %q columns, got %v", ColumnInput, ColumnCorrection, record)
			}
			continue
		}

		input := cell(record, inputCol)
		correction := cell(record, correctionCol)
		if input == "" && correction == "" {
			continue
		}

		rows = append(rows, Row{
			Index:      len(rows),
			Input:      input,
			Correction: correction,
		})
	}

	if !headerSeen {
		return nil, errors.New("dataset is empty")
	}

	return rows, nil
}

// Normalize is applied to dataset cells and to user queries so both sides of
// a similarity search see the same code points.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return Normalize(record[i])
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Errorf("workbook %s has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheets[0])
	}
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	return parseCSV(file)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}
	return records, nil
}
