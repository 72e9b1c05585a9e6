package fileparse

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoData            = errors.New("file contains no data rows")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Result is a parsed upload: ordered column headers and one loosely-typed
// map per data row, keyed by header.
type Result struct {
	Headers []string
	Records []map[string]any
}

// Parse sniffs the payload type and dispatches to the CSV or XLSX reader.
// The filename extension only breaks ties the content sniff cannot.
func Parse(filename string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	mtype := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case mtype.Is(xlsxMime) || ext == ".xlsx":
		return ParseXLSX(data)
	case mtype.Is("text/csv") || mtype.Is("text/plain") || ext == ".csv":
		return ParseCSV(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "detected %s", mtype.String())
	}
}

// ParseCSV reads comma-separated bytes. The first row is the header row;
// blank-header columns are dropped. Short rows pad with empty strings,
// overlong rows lose their tail.
func ParseCSV(data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = decodeLatin1(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, errors.Wrap(err, "read header row")
	}
	headers, cols := selectColumns(headerRow)
	if len(headers) == 0 {
		return nil, ErrNoData
	}

	records := make([]map[string]any, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read data row")
		}
		record := make(map[string]any, len(headers))
		for i, header := range headers {
			value := ""
			if cols[i] < len(row) {
				value = row[cols[i]]
			}
			record[header] = value
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return &Result{Headers: headers, Records: records}, nil
}

// ParseXLSX reads the first sheet of a workbook. Formatting mirrors
// ParseCSV; fully empty rows are skipped.
func ParseXLSX(data []byte) (*Result, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoData
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	headers, cols := selectColumns(rows[0])
	if len(headers) == 0 {
		return nil, ErrNoData
	}

	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(headers))
		empty := true
		for i, header := range headers {
			value := ""
			if cols[i] < len(row) {
				value = normalizeCell(row[cols[i]])
			}
			if value != "" {
				empty = false
			}
			record[header] = value
		}
		if empty {
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}
	return &Result{Headers: headers, Records: records}, nil
}

// selectColumns trims the header row and drops blank-header columns,
// returning the surviving names and their source indexes.
func selectColumns(headerRow []string) ([]string, []int) {
	headers := make([]string, 0, len(headerRow))
	cols := make([]int, 0, len(headerRow))
	for i, h := range headerRow {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		headers = append(headers, h)
		cols = append(cols, i)
	}
	return headers, cols
}

// normalizeCell rewrites scientific-notation numerics ("1.23E+10") into
// plain decimal strings. Excel renders long numbers that way; the backend
// wants the digits.
func normalizeCell(v string) string {
	trimmed := strings.TrimSpace(v)
	if !strings.ContainsAny(trimmed, "eE") || !strings.ContainsAny(trimmed, "0123456789") {
		return v
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return v
	}
	return d.String()
}

// decodeLatin1 maps ISO 8859-1 bytes onto their Unicode code points so
// legacy exports survive the UTF-8 pipeline.
func decodeLatin1(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data) * 2)
	for _, b := range data {
		if b < 0x80 {
			buf.WriteByte(b)
		} else {
			buf.WriteRune(rune(b))
		}
	}
	return buf.Bytes()
}
