package sheet

import (
	"context"

	"sheets-catalog-connector/internal/models"
)

// File is one spreadsheet visible to the connector.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ValidationRule restricts the cells in Range to the values found in
// SourceRange. Non-strict rules warn instead of rejecting input.
type ValidationRule struct {
	Range       string `json:"range"`
	SourceRange string `json:"sourceRange"`
	Strict      bool   `json:"strict"`
}

// Store is the spreadsheet backend. Ranges use A1 notation throughout.
// Writes accept nil cells, which leave the target cell untouched.
type Store interface {
	// ListFiles lists the spreadsheets in a folder. An empty folder id lists
	// the tenant's root folder.
	ListFiles(ctx context.Context, tenant models.Tenant, folderID string) ([]File, error)

	// ReadRange reads a rectangular range as rows of cell strings.
	ReadRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) ([][]string, error)

	// WriteRange writes values into a range, retrying once when throttled.
	WriteRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string, values [][]interface{}) error

	// ClearRange blanks every cell in a range.
	ClearRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) error

	// AutoResizeColumns fits the zero-based column span [start, end) to its
	// content.
	AutoResizeColumns(ctx context.Context, tenant models.Tenant, fileID string, start, end int) error

	// SetValidation replaces the data validation rules on a sheet.
	SetValidation(ctx context.Context, tenant models.Tenant, fileID string, rules []ValidationRule) error
}
