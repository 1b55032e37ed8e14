// Package template implements reusable extraction templates: named lists of
// (field name, OCR line index) pairs stored as small CSV blobs, applied
// against the extracted lines of later invoices.
package template

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Ext is the file extension of persisted template blobs. Template
// identifiers returned by List include it.
const Ext = ".csv"

// Row is one field of a template: a user-chosen name and the index of the
// OCR line the field's value is read from.
//
// Names need not be unique. Indices are not validated against any
// particular document at save time; line counts vary per invoice, so
// bounds checking happens when the template is applied.
type Row struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// FieldSpec is one field as entered on the Create Template page: a chosen
// name and the index of the line that holds the field's value.
type FieldSpec struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// BuildRows assembles template rows from field specs, preserving order.
// Names are trimmed and specs with blank names are dropped. Indices are not
// validated here; line counts vary per invoice, so bounds checking happens
// at apply time.
func BuildRows(specs []FieldSpec) []Row {
	rows := make([]Row, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		rows = append(rows, Row{Name: name, Index: spec.Index})
	}
	return rows
}

// EncodeRows serializes rows to the template blob format: a "Name,Index"
// header followed by one record per row.
func EncodeRows(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Name", "Index"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Name, strconv.Itoa(row.Index)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRows parses a template blob back into rows, preserving order.
func DecodeRows(data []byte) ([]Row, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "Name" || records[0][1] != "Index" {
		return nil, fmt.Errorf("missing Name,Index header")
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		index, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid index %q", i+1, record[1])
		}
		if index < 0 {
			return nil, fmt.Errorf("row %d: negative index %d", i+1, index)
		}
		rows = append(rows, Row{Name: record[0], Index: index})
	}
	return rows, nil
}
