// Package spreadsheet reads uploaded sales files and renders xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	appbulk "github.com/salescrm/backend/internal/application/bulk"
)

// DefaultMaxBytes bounds how much of an upload is read
const DefaultMaxBytes = 10 << 20

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file is too large")
	ErrNoHeader          = errors.New("file has no header row")
)

// Reader parses the first worksheet of .xlsx, .xls and .csv files
type Reader struct {
	maxBytes int64
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithMaxBytes sets the upload size limit
func WithMaxBytes(n int64) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// NewReader creates a Reader
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read picks the parser by file extension. The first non-empty row is the header;
// blank rows are dropped and row numbers match the file.
func (r *Reader) Read(fileName string, body io.Reader) (*appbulk.Sheet, error) {
	data, err := io.ReadAll(io.LimitReader(body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, ErrFileTooLarge
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toSheet(rows)
}

func toSheet(rows [][]string) (*appbulk.Sheet, error) {
	sheet := &appbulk.Sheet{}
	headerFound := false
	for i, cells := range rows {
		for j := range cells {
			cells[j] = strings.TrimSpace(cells[j])
		}
		if isBlank(cells) {
			continue
		}
		if !headerFound {
			sheet.Headers = cells
			headerFound = true
			continue
		}
		sheet.Rows = append(sheet.Rows, appbulk.SheetRow{Number: i + 1, Cells: cells})
	}
	if !headerFound {
		return nil, ErrNoHeader
	}
	return sheet, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
