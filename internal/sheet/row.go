package sheet

import "strings"

// Header maps lower-cased column names to their index in the header row.
// Sheets with different shapes each get their own Header.
type Header map[string]int

// NewHeader builds a case-insensitive column index from a header row.
// Duplicate names keep the first occurrence.
func NewHeader(row []string) Header {
	h := make(Header, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := h[key]; !ok {
			h[key] = i
		}
	}
	return h
}

// Index returns the column index for name, or -1 if the column is absent.
func (h Header) Index(name string) int {
	if i, ok := h[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// Field returns the cell under the named column, or "" when the column is
// missing or the row is shorter than the header.
func (h Header) Field(row []string, name string) string {
	i := h.Index(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
