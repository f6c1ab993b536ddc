package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sheets-catalog-connector/internal/models"
)

// SettingsRepository persists per-tenant connector state: import locks,
// spreadsheet folder ids and app settings.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetImportLock returns the tenant's current import lock, or nil when no pass
// holds one.
func (r *SettingsRepository) GetImportLock(tenantID string) (*models.ImportLock, error) {
	var lock models.ImportLock
	err := r.db.Where("tenant_id = ?", tenantID).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// AcquireImportLock takes the tenant's import lock atomically. When prev is
// nil the lock row must not exist yet; otherwise the row must still carry the
// prev timestamp, which lets a pass take over a stale lock without racing a
// concurrent takeover. Returns false when another pass won.
func (r *SettingsRepository) AcquireImportLock(tenantID, passID string, prev *time.Time) (bool, error) {
	now := time.Now().UTC()
	if prev == nil {
		result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ImportLock{
			TenantID:   tenantID,
			AcquiredAt: now,
			PassID:     passID,
		})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected == 1, nil
	}

	result := r.db.Model(&models.ImportLock{}).
		Where("tenant_id = ? AND acquired_at = ?", tenantID, *prev).
		Updates(map[string]interface{}{
			"acquired_at": now,
			"pass_id":     passID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClearImportLock releases the tenant's import lock. Releasing a lock that is
// already gone is not an error.
func (r *SettingsRepository) ClearImportLock(tenantID string) error {
	return r.db.Where("tenant_id = ?", tenantID).Delete(&models.ImportLock{}).Error
}

// GetFolders returns the tenant's registered spreadsheet folders, or nil when
// none are registered.
func (r *SettingsRepository) GetFolders(tenantID string) (*models.TenantFolders, error) {
	var folders models.TenantFolders
	err := r.db.Where("tenant_id = ?", tenantID).First(&folders).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folders, nil
}

// SaveFolders upserts the tenant's spreadsheet folder registration.
func (r *SettingsRepository) SaveFolders(folders *models.TenantFolders) error {
	folders.UpdatedAt = time.Now().UTC()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		UpdateAll: true,
	}).Create(folders).Error
}

// GetAppSettings returns the tenant's connector settings. Tenants without a
// row get zero-value settings, which select the v1 catalog flow.
func (r *SettingsRepository) GetAppSettings(tenantID string) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := r.db.Where("tenant_id = ?", tenantID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AppSettings{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveAppSettings upserts the tenant's connector settings.
func (r *SettingsRepository) SaveAppSettings(settings *models.AppSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		UpdateAll: true,
	}).Create(settings).Error
}
