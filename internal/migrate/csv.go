package migrate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/arod1104/uic-gradebook/internal/types"
)

const utf8BOM = "\ufeff"

// RecordReader turns registrar CSV rows into GradeRecords. Cells are looked
// up by exact header name; a header the file lacks reads as an empty cell.
type RecordReader struct {
	r     *csv.Reader
	term  string
	index map[string]int
	row   int
}

// NewRecordReader reads the header row of r. term is stamped on every record.
func NewRecordReader(r io.Reader, term string) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	return &RecordReader{r: cr, term: term, index: index}, nil
}

// Next returns the next record, or io.EOF once the input is exhausted.
func (rr *RecordReader) Next() (*types.GradeRecord, error) {
	cells, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row %d: %w", rr.row+1, err)
	}
	rr.row++

	rec := &types.GradeRecord{Term: rr.term}
	for _, col := range grades.StoredColumns() {
		if col.Header == "" {
			continue
		}
		col.Set(rec, rr.cell(cells, col.Header))
	}
	return rec, nil
}

// Row is the 1-based number of the data row last returned by Next.
func (rr *RecordReader) Row() int {
	return rr.row
}

func (rr *RecordReader) cell(cells []string, header string) string {
	i, ok := rr.index[header]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// ReadRecords reads every record of r.
func ReadRecords(r io.Reader, term string) ([]types.GradeRecord, error) {
	rr, err := NewRecordReader(r, term)
	if err != nil {
		return nil, err
	}

	var records []types.GradeRecord
	for {
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
}
