package bulk

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSV file level errors
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

// Reader parses a CSV document into header-addressed rows. It strips a
// UTF-8 BOM, validates the encoding, and tolerates rows with fewer
// fields than the header.
type Reader struct {
	csv       *csv.Reader
	headers   []string
	headerIdx map[string]int
	line      int
}

// NewReader creates a reader and consumes the header row
func NewReader(r io.Reader) (*Reader, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(head) {
		return nil, ErrInvalidEncoding
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := &Reader{
		csv:       csv.NewReader(buf),
		headerIdx: make(map[string]int),
	}
	reader.csv.LazyQuotes = true
	reader.csv.TrimLeadingSpace = true
	reader.csv.FieldsPerRecord = -1

	record, err := reader.csv.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range record {
		h = strings.TrimSpace(h)
		reader.headers = append(reader.headers, h)
		reader.headerIdx[h] = i
	}
	reader.line = 1
	return reader, nil
}

// NewReaderFromBytes creates a reader over an in-memory document
func NewReaderFromBytes(data []byte) (*Reader, error) {
	return NewReader(bytes.NewReader(data))
}

// Headers returns the parsed header names
func (r *Reader) Headers() []string {
	return r.headers
}

// HasHeader reports whether a column exists
func (r *Reader) HasHeader(name string) bool {
	_, ok := r.headerIdx[name]
	return ok
}

// Row is one parsed data row addressed by header name
type Row struct {
	Line   int
	fields map[string]string
}

// Get returns the trimmed value of a column, empty if absent
func (r *Row) Get(header string) string {
	return r.fields[header]
}

// IsEmpty reports whether every field of the row is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.fields {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadAll reads all remaining data rows, skipping fully blank ones
func (r *Reader) ReadAll() ([]Row, error) {
	var rows []Row
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return rows, nil
		}
		r.line++
		if err != nil {
			return rows, fmt.Errorf("error reading row %d: %w", r.line, err)
		}

		row := Row{Line: r.line, fields: make(map[string]string, len(r.headers))}
		for i, header := range r.headers {
			if i < len(record) {
				row.fields[header] = strings.TrimSpace(record[i])
			} else {
				row.fields[header] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// Writer emits a CSV document with a fixed header set
type Writer struct {
	csv     *csv.Writer
	headers []string
}

// NewWriter creates a writer and emits the header row
func NewWriter(w io.Writer, headers []string) (*Writer, error) {
	writer := &Writer{csv: csv.NewWriter(w), headers: headers}
	if err := writer.csv.Write(headers); err != nil {
		return nil, err
	}
	return writer, nil
}

// WriteRow emits one row with values addressed by header name
func (w *Writer) WriteRow(values map[string]string) error {
	record := make([]string, len(w.headers))
	for i, header := range w.headers {
		record[i] = values[header]
	}
	return w.csv.Write(record)
}

// Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
