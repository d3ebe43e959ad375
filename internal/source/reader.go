package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned when an export has no header row.
var ErrNoHeader = errors.New("export has no header row")

// Reader streams data records of an export, header excluded.
type Reader struct {
	csv  *csv.Reader
	row  int
	line int // last physical line of the previous record
}

// NewReader decodes r and consumes the header row.
func NewReader(r io.Reader) (*Reader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1 // short rows are the caller's concern
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	rd := &Reader{csv: cr}
	rd.line = rd.endLine(head)
	return rd, nil
}

// Next returns the next record and its 1-based row number (header excluded).
// encoding/csv skips blank lines, but each one still takes a row number so
// log lines match the physical layout of the export. Returns io.EOF after
// the last record.
func (r *Reader) Next() (int, []string, error) {
	rec, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("read row %d: %w", r.row+1, err)
	}
	start, _ := r.csv.FieldPos(0)
	r.row += start - r.line
	r.line = r.endLine(rec)
	return r.row, rec, nil
}

// endLine returns the line the record ends on. A quoted field may span
// lines; encoding/csv folds its line breaks to "\n".
func (r *Reader) endLine(rec []string) int {
	last := len(rec) - 1
	line, _ := r.csv.FieldPos(last)
	return line + strings.Count(rec[last], "\n")
}
