// Package csvio reads and writes the tabular files the pipeline consumes
// and produces. Input may be CSV or XLSX; column order is preserved from
// the source file so the output schema can mirror it. CSV bytes that are
// not valid UTF-8 are recovered by decoding as Windows-1252, the usual
// culprit for municipal data exports.
package csvio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/phila-data/enrich-cli/internal/model"
)

// Table is an in-memory tabular file: the header in source order plus
// one RawRecord per data row.
type Table struct {
	Columns []string
	Rows    []model.RawRecord
}

// ReadTable loads a CSV or XLSX file by extension.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	default:
		return readCSV(path)
	}
}

func readCSV(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: open input")
	}

	if !utf8.Valid(raw) {
		zap.L().Warn("input is not valid UTF-8, decoding as Windows-1252",
			zap.String("path", path))
		raw, err = io.ReadAll(transform.NewReader(
			strings.NewReader(string(raw)), charmap.Windows1252.NewDecoder()))
		if err != nil {
			return nil, eris.Wrap(err, "csvio: recode input")
		}
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csvio: input file is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csvio: read header")
	}
	stripBOM(header)

	t := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csvio: read row")
		}
		t.Rows = append(t.Rows, rowToRecord(len(t.Rows), header, record))
	}
	return t, nil
}

func readXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "csvio: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("csvio: xlsx file has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("csvio: input file is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	t := &Table{Columns: header}
	for _, row := range sheet.Rows[1:] {
		t.Rows = append(t.Rows, rowToRecord(len(t.Rows), header, rowToStrings(row)))
	}
	return t, nil
}

func rowToRecord(index int, header, record []string) model.RawRecord {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			values[col] = record[i]
		} else {
			values[col] = ""
		}
	}
	return model.RawRecord{Index: index, Values: values}
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func stripBOM(header []string) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
}

// WriteCSV writes rows under the given header. Every row is emitted with
// exactly len(columns) cells; missing values become empty strings, never
// omitted cells.
func WriteCSV(path string, columns []string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csvio: create output")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "csvio: write header")
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "csvio: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "csvio: flush output")
	}
	return f.Close()
}

// OutputPath derives the enriched-output filename from the input path:
// data/parcels.csv becomes data/parcels_enriched.csv.
func OutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, stem+"_enriched.csv")
}
