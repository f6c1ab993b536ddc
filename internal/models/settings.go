package models

import "time"

// ImportLock guards against concurrent import passes for a tenant. A lock
// older than the configured timeout is treated as stale and may be taken over.
type ImportLock struct {
	TenantID   string    `gorm:"primaryKey;type:varchar(255)" json:"tenantId"`
	AcquiredAt time.Time `json:"acquiredAt"`
	PassID     string    `gorm:"type:varchar(36)" json:"passId"`
}

// TableName specifies the table name for ImportLock
func (ImportLock) TableName() string {
	return "import_locks"
}

// TenantFolders stores the spreadsheet folder ids registered for a tenant.
type TenantFolders struct {
	TenantID         string    `gorm:"primaryKey;type:varchar(255)" json:"tenantId"`
	ProductsFolderID string    `gorm:"type:varchar(255)" json:"productsFolderId"`
	ImagesFolderID   string    `gorm:"type:varchar(255)" json:"imagesFolderId"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName specifies the table name for TenantFolders
func (TenantFolders) TableName() string {
	return "tenant_folders"
}

// AppSettings holds per-tenant connector settings.
type AppSettings struct {
	TenantID    string    `gorm:"primaryKey;type:varchar(255)" json:"tenantId"`
	IsV2Catalog bool      `json:"isV2Catalog"`
	AccountName string    `gorm:"type:varchar(255)" json:"accountName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name for AppSettings
func (AppSettings) TableName() string {
	return "app_settings"
}
