package template

import (
	"bytes"
	"encoding/csv"
)

// OutOfRangeMarker is the value exported for a row whose line index could
// not be resolved against the document.
const OutOfRangeMarker = "#INDEX_OUT_OF_RANGE"

// ResultRow is one resolved field of an extraction result.
type ResultRow struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Err  error  `json:"-"`
}

// Result is the table produced by applying a template to one document's
// extracted lines. Row order follows the template's row order.
type Result struct {
	Rows []ResultRow `json:"rows"`
}

// Apply resolves each template row against the extracted lines. A row whose
// index lies outside the lines is marked with ErrIndexOutOfRange; the other
// rows still resolve, and the result always has one row per template row.
func Apply(rows []Row, lines []string) Result {
	result := Result{Rows: make([]ResultRow, 0, len(rows))}
	for _, row := range rows {
		resolved := ResultRow{Name: row.Name}
		if row.Index >= 0 && row.Index < len(lines) {
			resolved.Text = lines[row.Index]
		} else {
			resolved.Err = ErrIndexOutOfRange
		}
		result.Rows = append(result.Rows, resolved)
	}
	return result
}

// SetField overwrites the resolved text of the first row whose name matches,
// clearing any resolution error on it. Duplicate field names resolve to the
// first match; later rows of the same name are untouched. Returns false when
// no row matches.
func (r *Result) SetField(name, text string) bool {
	for i := range r.Rows {
		if r.Rows[i].Name == name {
			r.Rows[i].Text = text
			r.Rows[i].Err = nil
			return true
		}
	}
	return false
}

// ExportCSV serializes the result to the download format: a "Name,Text"
// header plus one record per field. Unresolved rows export the
// out-of-range marker as their value.
func (r Result) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Name", "Text"}); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		text := row.Text
		if row.Err != nil {
			text = OutOfRangeMarker
		}
		if err := w.Write([]string{row.Name, text}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
