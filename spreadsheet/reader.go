package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/catalogit/core"
)

// Spreadsheet column headers.
const (
	ColumnProblem  = "Probleem"
	ColumnCategory = "Category"
	ColumnProduct  = "Soort interventie"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingColumn indicates a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// Row is one data row of the problem/product spreadsheet.
// Line is the 1-based line number in the source file. Err is set when the
// line could not be parsed; the other fields are then empty.
type Row struct {
	Line     int
	Problem  string
	Category string
	Product  string
	Err      error
}

// ReadFile reads rows from a CSV file.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read reads rows from UTF-8 CSV input. A leading byte-order mark is ignored.
// Columns are located by header name, so their order does not matter.
// Stray quotes inside unquoted fields are kept. A data line that still
// fails to parse is returned as a Row carrying a validation error.
func Read(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	cols := make([]int, 0, 3)
	for _, name := range []string{ColumnProblem, ColumnCategory, ColumnProduct} {
		i, ok := index[name]
		if !ok {
			return nil, core.NewValidationError("header", fmt.Errorf("%w: %q", ErrMissingColumn, name))
		}
		cols = append(cols, i)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, Row{
				Line: parseErr.StartLine,
				Err:  core.NewValidationError(fmt.Sprintf("line %d", parseErr.StartLine), err),
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, Row{
			Line:     line,
			Problem:  field(record, cols[0]),
			Category: field(record, cols[1]),
			Product:  field(record, cols[2]),
		})
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
