package models

// Tenant identifies the account an operation runs against. It is threaded
// explicitly through every collaborator call; nothing reads it from ambient
// request state.
type Tenant struct {
	ID          string
	Credential  string
	AccountName string
}

// ProcessResult is the aggregate outcome of one import or clear pass.
type ProcessResult struct {
	Done    int    `json:"done"`
	Error   int    `json:"error"`
	Message string `json:"message,omitempty"`
	Blocked bool   `json:"blocked"`
}

// SearchTotals reports how many products and SKUs an export query would cover.
type SearchTotals struct {
	Products     int64  `json:"products"`
	Skus         int64  `json:"skus"`
	TotalRecords int64  `json:"totalRecords"`
	Message      string `json:"message,omitempty"`
}
