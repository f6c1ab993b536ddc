package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/repository"
)

// SettingsHandler manages per-tenant connector settings and the spreadsheet
// folder registration.
type SettingsHandler struct {
	settingsRepo *repository.SettingsRepository
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

// GetSettings returns the tenant's connector settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsRepo.GetAppSettings(c.GetString("tenantId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings upserts the tenant's connector settings.
func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	var req struct {
		IsV2Catalog bool   `json:"isV2Catalog"`
		AccountName string `json:"accountName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	settings := &models.AppSettings{
		TenantID:    c.GetString("tenantId"),
		IsV2Catalog: req.IsV2Catalog,
		AccountName: req.AccountName,
	}
	if err := h.settingsRepo.SaveAppSettings(settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetFolders returns the tenant's spreadsheet folder registration.
func (h *SettingsHandler) GetFolders(c *gin.Context) {
	folders, err := h.settingsRepo.GetFolders(c.GetString("tenantId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if folders == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no folders registered"})
		return
	}
	c.JSON(http.StatusOK, folders)
}

// SaveFolders upserts the tenant's spreadsheet folder registration.
func (h *SettingsHandler) SaveFolders(c *gin.Context) {
	var req struct {
		ProductsFolderID string `json:"productsFolderId"`
		ImagesFolderID   string `json:"imagesFolderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	folders := &models.TenantFolders{
		TenantID:         c.GetString("tenantId"),
		ProductsFolderID: req.ProductsFolderID,
		ImagesFolderID:   req.ImagesFolderID,
	}
	if err := h.settingsRepo.SaveFolders(folders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, folders)
}
