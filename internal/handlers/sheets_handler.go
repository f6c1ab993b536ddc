package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/services"
)

// SheetsHandler exposes the reconciliation engine's operations over REST.
type SheetsHandler struct {
	importService     *services.ImportService
	exportService     *services.ExportService
	validationService *services.ValidationService
}

// NewSheetsHandler creates a new sheets handler
func NewSheetsHandler(importService *services.ImportService, exportService *services.ExportService, validationService *services.ValidationService) *SheetsHandler {
	return &SheetsHandler{
		importService:     importService,
		exportService:     exportService,
		validationService: validationService,
	}
}

// tenantFromContext builds the tenant value threaded through every service
// call. The credential header is optional; the tenant id was enforced by
// middleware.
func tenantFromContext(c *gin.Context) models.Tenant {
	return models.Tenant{
		ID:         c.GetString("tenantId"),
		Credential: c.GetHeader("X-Catalog-Credential"),
	}
}

// Process runs an import pass over the tenant's sheets.
func (h *SheetsHandler) Process(c *gin.Context) {
	result, err := h.importService.ProcessSheet(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result.Blocked {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Clear blanks the data rows of the tenant's sheets.
func (h *SheetsHandler) Clear(c *gin.Context) {
	result, err := h.importService.ClearSheet(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result.Blocked {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export writes a catalog query's SKUs into the tenant's sheets. The query
// has the shape "type:param".
func (h *SheetsHandler) Export(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, err := h.exportService.ExportToSheet(c.Request.Context(), tenantFromContext(c), req.Query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// SearchTotal reports how many products and SKUs a query would export.
func (h *SheetsHandler) SearchTotal(c *gin.Context) {
	totals, err := h.exportService.SearchTotal(c.Request.Context(), tenantFromContext(c), c.Query("query"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Validation refreshes the brand/category dropdown constraints.
func (h *SheetsHandler) Validation(c *gin.Context) {
	ok, err := h.validationService.SetBrandList(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": ok})
}
