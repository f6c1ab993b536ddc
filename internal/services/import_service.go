package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/catalog"
	"sheets-catalog-connector/internal/config"
	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/sheet"
)

// SettingsStore is the per-tenant state the import pipeline depends on.
type SettingsStore interface {
	GetImportLock(tenantID string) (*models.ImportLock, error)
	AcquireImportLock(tenantID, passID string, prev *time.Time) (bool, error)
	ClearImportLock(tenantID string) error
	GetFolders(tenantID string) (*models.TenantFolders, error)
	GetAppSettings(tenantID string) (*models.AppSettings, error)
}

// ImportService drives the sheet-to-catalog reconciliation: it reads every
// spreadsheet in the tenant's products folder, pushes each row through the
// catalog call chain, and writes the per-row outcome back into the sheet.
type ImportService struct {
	cfg      *config.Config
	catalog  catalog.Client
	store    sheet.Store
	settings SettingsStore
	logger   *logrus.Logger
}

// NewImportService creates a new import service
func NewImportService(cfg *config.Config, catalogClient catalog.Client, store sheet.Store, settings SettingsStore, logger *logrus.Logger) *ImportService {
	return &ImportService{
		cfg:      cfg,
		catalog:  catalogClient,
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// rowLog collects the per-row trace that ends up in the sheet's message
// column, one line per pipeline step.
type rowLog struct {
	sb strings.Builder
}

func (l *rowLog) linef(format string, args ...interface{}) {
	fmt.Fprintf(&l.sb, format, args...)
	l.sb.WriteString("\n")
}

func (l *rowLog) String() string {
	return l.sb.String()
}

// importRow is one sheet row pulled apart into its named columns.
type importRow struct {
	ProductID          string
	SkuID              string
	Category           string
	Brand              string
	ProductName        string
	ProductRefCode     string
	SkuName            string
	SkuEan             string
	SkuRefCode         string
	Height             string
	Width              string
	Length             string
	Weight             string
	Description        string
	SearchKeywords     string
	MetaTagDescription string
	ImageURLs          [5]string
	DisplayOutOfStock  string
	MSRP               string
	SellingPrice       string
	AvailableQuantity  string
	ProductSpecs       string
	SkuSpecs           string
	TradePolicyIDs     string
	Status             string
	DoUpdate           bool
	ActivateSku        bool
}

func newImportRow(h sheet.Header, cells []string) importRow {
	row := importRow{
		ProductID:          h.Field(cells, "productid"),
		SkuID:              h.Field(cells, "skuid"),
		Category:           h.Field(cells, "category"),
		Brand:              h.Field(cells, "brand"),
		ProductName:        h.Field(cells, "productname"),
		ProductRefCode:     h.Field(cells, "product reference code"),
		SkuName:            h.Field(cells, "skuname"),
		SkuEan:             h.Field(cells, "sku ean/gtin"),
		SkuRefCode:         h.Field(cells, "sku reference code"),
		Height:             h.Field(cells, "height"),
		Width:              h.Field(cells, "width"),
		Length:             h.Field(cells, "length"),
		Weight:             h.Field(cells, "weight"),
		Description:        h.Field(cells, "product description"),
		SearchKeywords:     h.Field(cells, "search keywords"),
		MetaTagDescription: h.Field(cells, "metatag description"),
		DisplayOutOfStock:  h.Field(cells, "display if out of stock"),
		MSRP:               h.Field(cells, "msrp"),
		SellingPrice:       h.Field(cells, "selling price (price to gpp)"),
		AvailableQuantity:  h.Field(cells, "available quantity"),
		ProductSpecs:       h.Field(cells, "productspecs"),
		SkuSpecs:           h.Field(cells, "sku specs"),
		TradePolicyIDs:     h.Field(cells, "trade policy id"),
		Status:             h.Field(cells, "status"),
		DoUpdate:           sheet.ParseBool(h.Field(cells, "update"), "update"),
		ActivateSku:        sheet.ParseBool(h.Field(cells, "activate sku"), "activate sku"),
	}
	for i := range row.ImageURLs {
		row.ImageURLs[i] = h.Field(cells, fmt.Sprintf("image url %d", i+1))
	}
	return row
}

// ProcessSheet runs one import pass for the tenant. At most one pass runs per
// tenant at a time; a pass older than the lock timeout is treated as dead and
// taken over.
func (s *ImportService) ProcessSheet(ctx context.Context, tenant models.Tenant) (*models.ProcessResult, error) {
	result := &models.ProcessResult{}

	acquired, blockedSince, err := s.acquireLock(tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !acquired {
		s.logger.WithFields(logrus.Fields{
			"tenant_id":      tenant.ID,
			"import_started": blockedSince,
		}).Info("Import blocked by lock")
		result.Blocked = true
		result.Message = fmt.Sprintf("Import started %s in progress.", blockedSince.Format(time.RFC3339))
		return result, nil
	}
	defer s.releaseLock(tenant)

	tenant, isV2, err := s.resolveTenant(tenant)
	if err != nil {
		return nil, err
	}

	files, err := s.listSheets(ctx, tenant)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		grid, err := s.store.ReadRange(ctx, tenant, file.ID, fmt.Sprintf("A1:AZ%d", s.cfg.DefaultSheetSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", file.ID, err)
		}
		if len(grid) == 0 {
			result.Message = "Empty Spreadsheet Response."
			return result, nil
		}

		header := sheet.NewHeader(grid[0])
		statusIdx := header.Index("status")
		messageIdx := header.Index("message")
		if statusIdx < 0 || messageIdx < 0 {
			return nil, fmt.Errorf("sheet %s is missing the status or message column", file.ID)
		}

		rowCount := len(grid)
		blockSize := rowCount / s.cfg.WriteBlockSizeDivisor
		if blockSize < s.cfg.MinWriteBlockSize {
			blockSize = s.cfg.MinWriteBlockSize
		}
		writer := NewResultWriter(s.store, tenant, file.ID,
			sheet.ColumnLetter(statusIdx), sheet.ColumnLetter(messageIdx), blockSize, s.logger)

		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"file_id":   file.ID,
			"rows":      rowCount - 1,
			"catalog":   catalogVersion(isV2),
		}).Info("Processing sheet")

		for i := 1; i < rowCount; i++ {
			row := newImportRow(header, grid[i])
			if row.Status == "Done" {
				writer.AppendSkip(ctx)
				continue
			}

			success, trace := s.processRow(ctx, tenant, row, isV2)
			status := "Error"
			if success {
				status = "Done"
				result.Done++
			} else {
				result.Error++
				s.logger.WithFields(logrus.Fields{
					"tenant_id": tenant.ID,
					"file_id":   file.ID,
					"row":       i + 1,
				}).Warnf("Row failed:\n%s", trace)
			}
			writer.Append(ctx, status, trace)
		}

		writer.Flush(ctx)
		if err := s.store.AutoResizeColumns(ctx, tenant, file.ID, statusIdx-1, statusIdx+1); err != nil {
			s.logger.WithError(err).Warn("Failed to resize result columns")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"done":      result.Done,
		"error":     result.Error,
	}).Info("Import pass finished")
	return result, nil
}

// ClearSheet blanks every data row in the tenant's sheets, leaving headers in
// place. It shares the import lock so a clear cannot race a running import.
func (s *ImportService) ClearSheet(ctx context.Context, tenant models.Tenant) (*models.ProcessResult, error) {
	result := &models.ProcessResult{}

	acquired, blockedSince, err := s.acquireLock(tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !acquired {
		result.Blocked = true
		result.Message = fmt.Sprintf("Import started %s in progress.", blockedSince.Format(time.RFC3339))
		return result, nil
	}
	defer s.releaseLock(tenant)

	files, err := s.listSheets(ctx, tenant)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		a1Range := fmt.Sprintf("A2:ZZ%d", s.cfg.DefaultSheetSize)
		if err := s.store.ClearRange(ctx, tenant, file.ID, a1Range); err != nil {
			return nil, fmt.Errorf("failed to clear sheet %s: %w", file.ID, err)
		}
		result.Message = "Cleared"
	}

	s.logger.WithField("tenant_id", tenant.ID).Info("Sheet cleared")
	return result, nil
}

// acquireLock takes the tenant's import lock. The compare-and-swap in the
// settings store guarantees that of two passes racing for a stale lock only
// one proceeds. Returns the holder's start time when blocked.
func (s *ImportService) acquireLock(tenant models.Tenant) (bool, time.Time, error) {
	lock, err := s.settings.GetImportLock(tenant.ID)
	if err != nil {
		return false, time.Time{}, err
	}

	var prev *time.Time
	if lock != nil {
		if time.Since(lock.AcquiredAt) < s.cfg.LockTimeout {
			return false, lock.AcquiredAt, nil
		}
		prev = &lock.AcquiredAt
	}

	ok, err := s.settings.AcquireImportLock(tenant.ID, uuid.New().String(), prev)
	if err != nil {
		return false, time.Time{}, err
	}
	if !ok {
		// Lost the race to another pass that just started.
		return false, time.Now(), nil
	}
	return true, time.Time{}, nil
}

// releaseLock clears the lock on every exit path, panics included.
func (s *ImportService) releaseLock(tenant models.Tenant) {
	if err := s.settings.ClearImportLock(tenant.ID); err != nil {
		s.logger.WithError(err).WithField("tenant_id", tenant.ID).Error("Failed to release import lock")
	}
}

// resolveTenant fills in the account name and reports which catalog flavor
// the tenant runs.
func (s *ImportService) resolveTenant(tenant models.Tenant) (models.Tenant, bool, error) {
	settings, err := s.settings.GetAppSettings(tenant.ID)
	if err != nil {
		return tenant, false, fmt.Errorf("failed to load app settings: %w", err)
	}
	if settings.AccountName != "" {
		tenant.AccountName = settings.AccountName
	} else {
		tenant.AccountName = tenant.ID
	}
	return tenant, settings.IsV2Catalog, nil
}

func (s *ImportService) listSheets(ctx context.Context, tenant models.Tenant) ([]sheet.File, error) {
	var folderID string
	folders, err := s.settings.GetFolders(tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder registration: %w", err)
	}
	if folders != nil {
		folderID = folders.ProductsFolderID
	}
	files, err := s.store.ListFiles(ctx, tenant, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	return files, nil
}

func catalogVersion(isV2 bool) string {
	if isV2 {
		return "v2"
	}
	return "v1"
}

// processRow runs the whole call chain for one row. Remote failures mark the
// row failed but never abort the pass.
func (s *ImportService) processRow(ctx context.Context, tenant models.Tenant, row importRow, isV2 bool) (bool, string) {
	log := &rowLog{}
	log.linef("%s", time.Now().Format(time.RFC3339))

	var success bool
	var productID, skuID string
	var skuReq *models.SkuRequest
	if isV2 {
		success, productID = s.upsertProductV2(ctx, tenant, row, log)
		skuID = strings.TrimSpace(row.SkuID)
	} else {
		success, productID, skuID, skuReq = s.upsertProductAndSkuV1(ctx, tenant, row, log)
		if success {
			success = s.applyEan(ctx, tenant, row, skuID, log) && success
		}
		if success {
			success = s.applyImages(ctx, tenant, row, skuID, log) && success
		}
	}

	if success {
		success = s.applyPrice(ctx, tenant, row, skuID, log) && success
	}
	if success {
		success = s.applyInventory(ctx, tenant, row, skuID, log) && success
	}
	if success && !isV2 {
		success = s.applySpecifications(ctx, tenant, row, productID, skuID, log) && success
	}
	if success && row.ActivateSku && !isV2 && skuReq != nil {
		skuReq.IsActive = true
		res := s.catalog.UpdateSku(ctx, tenant, skuID, *skuReq)
		success = res.Success && success
		log.linef("Activate Sku: [%d] %s", res.StatusCode, res.Message)
	}
	if success && row.TradePolicyIDs != "" {
		for _, policyID := range strings.Split(row.TradePolicyIDs, ",") {
			res := s.catalog.AssignTradePolicy(ctx, tenant, productID, strings.TrimSpace(policyID))
			success = res.Success && success
			log.linef("Trade Policy Id '%s': [%d] %s", policyID, res.StatusCode, res.Message)
		}
	}

	return success, log.String()
}

// upsertProductAndSkuV1 drives the v1 product and SKU create-or-update pair,
// adopting pre-existing ids out of classified conflict responses.
func (s *ImportService) upsertProductAndSkuV1(ctx context.Context, tenant models.Tenant, row importRow, log *rowLog) (bool, string, string, *models.SkuRequest) {
	productID := strings.TrimSpace(row.ProductID)
	productReq := models.ProductRequest{
		ID:                 sheet.ParseInt(row.ProductID, "productid"),
		Name:               row.ProductName,
		CategoryPath:       row.Category,
		BrandName:          row.Brand,
		RefID:              row.ProductRefCode,
		Title:              row.ProductName,
		LinkID:             fmt.Sprintf("%s-%s", row.ProductName, row.ProductRefCode),
		Description:        row.Description,
		ReleaseDate:        time.Now().Format(time.RFC3339),
		KeyWords:           row.SearchKeywords,
		IsVisible:          true,
		IsActive:           true,
		MetaTagDescription: row.MetaTagDescription,
		ShowWithoutStock:   sheet.ParseBool(row.DisplayOutOfStock, "display if out of stock"),
		Score:              1,
	}

	res := s.catalog.CreateProduct(ctx, tenant, productReq)
	log.linef("Product: [%d] %s", res.StatusCode, res.Message)

	success := false
	switch {
	case res.Success:
		var created models.ProductResponse
		if err := json.Unmarshal([]byte(res.Message), &created); err == nil && created.ID > 0 {
			productID = strconv.FormatInt(created.ID, 10)
			log.linef("New Product Id %s", productID)
		}
		success = true

	case res.StatusCode == http.StatusConflict:
		conflict, ok := catalog.ClassifyConflict(res.Message)
		switch {
		case ok && conflict.Kind == catalog.ConflictProductDuplicateID:
			success = true
			if row.DoUpdate {
				upd := s.catalog.UpdateProduct(ctx, tenant, productID, productReq)
				success = upd.Success
				log.linef("Product Update: [%d] %s", upd.StatusCode, upd.Message)
			}
		case ok && conflict.Kind == catalog.ConflictProductDuplicateRef && productID == "":
			if id, err := strconv.ParseInt(conflict.ID, 10, 64); err == nil && id > 0 {
				productID = conflict.ID
				success = true
				log.linef("Using Product Id %s", productID)
				if row.DoUpdate {
					upd := s.catalog.UpdateProduct(ctx, tenant, productID, productReq)
					success = upd.Success
					log.linef("Product Update: [%d] %s", upd.StatusCode, upd.Message)
				}
			}
		}
	}
	if !success {
		return false, productID, "", nil
	}

	skuID := strings.TrimSpace(row.SkuID)
	height := sheet.ParseFloat(row.Height, "height")
	length := sheet.ParseFloat(row.Length, "length")
	width := sheet.ParseFloat(row.Width, "width")
	var cubicWeight *float64
	if height != nil && length != nil && width != nil {
		cw := (*height * *length * *width) / s.cfg.VolumetricFactor
		cubicWeight = &cw
	}
	productIDNum, _ := strconv.ParseInt(productID, 10, 64)
	skuReq := models.SkuRequest{
		ID:                  sheet.ParseInt(row.SkuID, "skuid"),
		ProductID:           productIDNum,
		IsActive:            false,
		Name:                row.SkuName,
		RefID:               row.SkuRefCode,
		PackagedHeight:      height,
		PackagedLength:      length,
		PackagedWidth:       width,
		PackagedWeightKg:    sheet.ParseFloat(row.Weight, "weight"),
		CubicWeight:         cubicWeight,
		IsKit:               false,
		CommercialCondition: 1,
		MeasurementUnit:     "un",
		UnitMultiplier:      1,
		KitItemsSellApart:   false,
	}

	skuRes := s.catalog.CreateSku(ctx, tenant, skuReq)
	log.linef("Sku: [%d] %s", skuRes.StatusCode, skuRes.Message)
	if skuRes.Success && skuID == "" {
		var created models.SkuResponse
		if err := json.Unmarshal([]byte(skuRes.Message), &created); err == nil && created.ID > 0 {
			skuID = strconv.FormatInt(created.ID, 10)
			log.linef("New Sku Id %s", skuID)
		}
	}

	if skuRes.StatusCode == http.StatusConflict {
		conflict, ok := catalog.ClassifyConflict(skuRes.Message)
		switch {
		case ok && conflict.Kind == catalog.ConflictSkuRefInUse && skuID == "":
			skuID = conflict.ID
			if skuID == "" {
				success = false
			} else {
				log.linef("Using Sku Id %s", skuID)
				if row.DoUpdate {
					upd := s.catalog.UpdateSku(ctx, tenant, skuID, skuReq)
					success = upd.Success && success
					log.linef("Sku Update: [%d] %s", upd.StatusCode, upd.Message)
				}
			}
		case ok && conflict.Kind == catalog.ConflictSkuDuplicateID && row.DoUpdate:
			upd := s.catalog.UpdateSku(ctx, tenant, skuID, skuReq)
			success = upd.Success && success
			log.linef("Sku Update: [%d] %s", upd.StatusCode, upd.Message)
		}
	} else {
		success = skuRes.Success && success
	}

	return success, productID, skuID, &skuReq
}

func (s *ImportService) applyEan(ctx context.Context, tenant models.Tenant, row importRow, skuID string, log *rowLog) bool {
	if row.SkuEan == "" {
		log.linef("EAN/GTIN: Empty")
		return true
	}
	res := s.catalog.CreateEANGTIN(ctx, tenant, skuID, row.SkuEan)
	log.linef("EAN/GTIN: [%d] %s", res.StatusCode, res.Message)
	return res.Success
}

// applyImages registers every non-empty image slot in order. The first slot
// is the primary image. All slots are attempted even after a failure.
func (s *ImportService) applyImages(ctx context.Context, tenant models.Tenant, row importRow, skuID string, log *rowLog) bool {
	imageSuccess := true
	haveImage := false
	var results strings.Builder
	for i, imageURL := range row.ImageURLs {
		if imageURL == "" {
			continue
		}
		haveImage = true
		name := fmt.Sprintf("%s-%d", row.SkuName, i+1)
		res := s.catalog.CreateSkuFile(ctx, tenant, skuID, name, name, i == 0, imageURL)
		imageSuccess = imageSuccess && res.Success
		fmt.Fprintf(&results, "%d: %s\n", i+1, res.Message)
	}
	if !haveImage {
		log.linef("Images: Empty")
		return true
	}
	log.linef("Images: %t %s", imageSuccess, results.String())
	return imageSuccess
}

// applyPrice needs both list and selling price; a half-filled pair is a
// logged no-op, not a failure.
func (s *ImportService) applyPrice(ctx context.Context, tenant models.Tenant, row importRow, skuID string, log *rowLog) bool {
	if row.MSRP == "" || row.SellingPrice == "" {
		log.linef("Price: Empty")
		return true
	}
	price := models.PriceRequest{}
	if v := sheet.ParseCurrency(row.SellingPrice, "selling price (price to gpp)"); v != nil {
		price.BasePrice = *v
	}
	if v := sheet.ParseCurrency(row.MSRP, "msrp"); v != nil {
		price.ListPrice = *v
		price.CostPrice = *v
	}
	res := s.catalog.CreatePrice(ctx, tenant, skuID, price)
	log.linef("Price: [%d] %s", res.StatusCode, res.Message)
	return res.Success
}

// applyInventory writes the available quantity into the first warehouse. A
// missing warehouse list is a row failure.
func (s *ImportService) applyInventory(ctx context.Context, tenant models.Tenant, row importRow, skuID string, log *rowLog) bool {
	if row.AvailableQuantity == "" {
		return true
	}
	warehouses, err := s.catalog.ListAllWarehouses(ctx, tenant)
	if err != nil {
		log.linef("Inventory: Null Warehouse")
		return false
	}
	if len(warehouses) == 0 || warehouses[0].ID == "" {
		log.linef("Inventory: No Warehouse")
		return false
	}

	inventory := models.InventoryRequest{UnlimitedQuantity: false}
	if qty := sheet.ParseInt(row.AvailableQuantity, "available quantity"); qty != nil {
		inventory.Quantity = *qty
	}
	res := s.catalog.SetInventory(ctx, tenant, skuID, warehouses[0].ID, inventory)
	log.linef("Inventory: [%d] %s", res.StatusCode, res.Message)
	return res.Success
}

// applySpecifications applies product and SKU specs attribute by attribute.
// A throttled attribute gets exactly one delayed retry. A malformed spec
// block fails without applying any of its attributes.
func (s *ImportService) applySpecifications(ctx context.Context, tenant models.Tenant, row importRow, productID, skuID string, log *rowLog) bool {
	success := true

	if row.ProductSpecs != "" {
		attrs, err := sheet.ParseSpecBlock(row.ProductSpecs)
		if err != nil {
			success = false
			log.linef("Error processing Product Specifications.")
			s.logger.WithError(err).Warn("Malformed product specifications")
		} else {
			for i, attr := range attrs {
				res := s.setSpecWithRetry(ctx, func() catalog.UpdateResult {
					return s.catalog.SetProductSpecification(ctx, tenant, productID, attr)
				}, s.cfg.ProductSpecRetryDelay)
				success = res.Success && success
				log.linef("Prod Spec %d: [%d] %s", i+1, res.StatusCode, res.Message)
			}
		}
	}

	if row.SkuSpecs != "" {
		attrs, err := sheet.ParseSpecBlock(row.SkuSpecs)
		if err != nil {
			success = false
			log.linef("Error processing Sku Specifications.")
			s.logger.WithError(err).Warn("Malformed sku specifications")
		} else {
			for i, attr := range attrs {
				res := s.setSpecWithRetry(ctx, func() catalog.UpdateResult {
					return s.catalog.SetSkuSpecification(ctx, tenant, skuID, attr)
				}, s.cfg.SkuSpecRetryDelay)
				success = res.Success && success
				log.linef("Sku Spec %d: [%d] %s", i+1, res.StatusCode, res.Message)
			}
		}
	}

	return success
}

func (s *ImportService) setSpecWithRetry(ctx context.Context, call func() catalog.UpdateResult, delay time.Duration) catalog.UpdateResult {
	res := call()
	if res.Success || res.StatusCode != http.StatusTooManyRequests {
		return res
	}
	s.logger.WithField("delay", delay).Warn("Specification write throttled, retrying")
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return res
	}
	return call()
}

// upsertProductV2 builds the v2 product document, resolves brand and
// category best-effort, and creates or merges the document in the catalog.
func (s *ImportService) upsertProductV2(ctx context.Context, tenant models.Tenant, row importRow, log *rowLog) (bool, string) {
	success := true

	brandID := s.resolveBrandV2(ctx, tenant, row.Brand, log)
	categoryID := s.resolveCategoryV2(ctx, tenant, row.Category, log)

	product := models.ProductRequestV2{
		ID:           strings.TrimSpace(row.ProductID),
		Name:         row.ProductName,
		CategoryPath: row.Category,
		BrandName:    row.Brand,
		BrandID:      brandID,
		ExternalID:   strings.TrimSpace(row.ProductRefCode),
		Description:  row.Description,
		Status:       "active",
		Condition:    "new",
		Type:         "physical",
		Images:       []models.ImageV2{},
		Skus:         []models.SkuV2{},
	}
	if categoryID != "" {
		product.CategoryIDs = []string{categoryID}
	}

	// SKU specs in v2 travel inside the product document.
	var skuSpecs []models.SkuSpecV2
	if row.SkuSpecs != "" {
		attrs, err := sheet.ParseSpecBlock(row.SkuSpecs)
		if err != nil {
			success = false
			log.linef("Error processing Sku Specifications.")
		} else {
			for _, attr := range attrs {
				skuSpecs = append(skuSpecs, models.SkuSpecV2{
					Name:  attr.FieldName,
					Value: strings.Join(attr.FieldValues, ","),
				})
			}
		}
	}

	if strings.TrimSpace(row.SkuName) == "" && strings.TrimSpace(row.SkuID) == "" {
		log.linef("Missing sku info")
	} else {
		product.Skus = append(product.Skus, models.SkuV2{
			ID:         strings.TrimSpace(row.SkuID),
			IsActive:   row.ActivateSku,
			Name:       row.SkuName,
			ExternalID: strings.TrimSpace(row.SkuRefCode),
			Ean:        row.SkuEan,
			Dimensions: models.DimensionsV2{
				Height: sheet.ParseFloat(row.Height, "height"),
				Length: sheet.ParseFloat(row.Length, "length"),
				Width:  sheet.ParseFloat(row.Width, "width"),
			},
			Weight:  sheet.ParseFloat(row.Weight, "weight"),
			Sellers: []models.SellerV2{},
			Specs:   skuSpecs,
		})
	}

	product.Attributes = buildAttributesV2(row)

	if row.ProductSpecs != "" {
		attrs, err := sheet.ParseSpecBlock(row.ProductSpecs)
		if err != nil {
			success = false
			log.linef("Error processing Product Specifications.")
		} else {
			for _, attr := range attrs {
				product.Specs = append(product.Specs, models.ProductSpecV2{
					Name:   attr.FieldName,
					Values: attr.FieldValues,
				})
			}
		}
	}

	s.attachImagesV2(&product, row, log)

	res := s.sendProductV2(ctx, tenant, &product, row.DoUpdate, log)
	success = res.Success && success
	log.linef("ProductV2: [%d] %s", res.StatusCode, res.Message)
	return success, product.ID
}

// resolveBrandV2 finds the brand by case-insensitive substring match or
// creates it. Failures are logged and swallowed; the product write decides
// the row's fate.
func (s *ImportService) resolveBrandV2(ctx context.Context, tenant models.Tenant, brand string, log *rowLog) string {
	brands, err := s.catalog.GetBrandsV2(ctx, tenant)
	if err != nil {
		s.logger.WithError(err).WithField("brand", brand).Warn("Failed to list brands")
	} else {
		for _, b := range brands.Data {
			if containsFold(b.Name, brand) {
				return b.ID
			}
		}
	}

	created, err := s.catalog.CreateBrandV2(ctx, tenant, models.CreateBrandV2Request{Name: brand, IsActive: true})
	if err != nil {
		s.logger.WithError(err).WithField("brand", brand).Warn("Failed to create brand")
		return ""
	}
	log.linef("Created Brand '%s' Id: %s", brand, created.ID)
	return created.ID
}

// resolveCategoryV2 matches the category path's leaf against the flat v2
// category list, creating missing segments root to leaf. Best-effort like
// brand resolution.
func (s *ImportService) resolveCategoryV2(ctx context.Context, tenant models.Tenant, categoryPath string, log *rowLog) string {
	categories, err := s.catalog.GetCategoriesV2(ctx, tenant)
	if err != nil {
		s.logger.WithError(err).WithField("category", categoryPath).Warn("Failed to list categories")
		categories = &models.CategoryListV2{}
	}

	segments := strings.Split(categoryPath, "/")
	if id := findCategoryV2(categories, segments[len(segments)-1]); id != "" {
		return id
	}

	var categoryID, parentID string
	for _, segment := range segments {
		if id := findCategoryV2(categories, segment); id != "" {
			parentID = id
			categoryID = id
			continue
		}
		created, err := s.catalog.CreateCategoryV2(ctx, tenant, models.CreateCategoryV2Request{
			Name:     segment,
			ParentID: parentID,
		})
		if err != nil {
			s.logger.WithError(err).WithField("category", segment).Warn("Failed to create category")
			continue
		}
		log.linef("Created Category '%s' Id: %s", segment, created.ID)
		parentID = created.ID
		categoryID = created.ID
	}
	return categoryID
}

func findCategoryV2(categories *models.CategoryListV2, name string) string {
	for _, node := range categories.Roots {
		if containsFold(node.Value.Name, name) {
			return node.Value.ID
		}
	}
	return ""
}

// buildAttributesV2 carries search keywords and the metatag description as
// non-filterable attributes.
func buildAttributesV2(row importRow) []models.AttributeV2 {
	var attrs []models.AttributeV2
	if strings.TrimSpace(row.SearchKeywords) != "" {
		attrs = append(attrs, models.AttributeV2{Name: "Search Keywords", Value: row.SearchKeywords})
	}
	if strings.TrimSpace(row.MetaTagDescription) != "" {
		attrs = append(attrs, models.AttributeV2{Name: "Metatag Description", Value: row.MetaTagDescription})
	}
	return attrs
}

// attachImagesV2 validates each image URL and embeds the valid ones in the
// document. The first valid image is the main one.
func (s *ImportService) attachImagesV2(product *models.ProductRequestV2, row importRow, log *rowLog) {
	var images []models.ImageV2
	for i, imageURL := range row.ImageURLs {
		if imageURL == "" {
			continue
		}
		if !strings.HasPrefix(imageURL, "http") || !isWellFormedURL(imageURL) {
			log.linef("Image %d - Invalid URL format.", i+1)
			continue
		}
		id := "Main"
		if len(images) > 0 {
			id = fmt.Sprintf("Alt %d", len(images))
		}
		images = append(images, models.ImageV2{ID: id, URL: imageURL, Alt: id})
	}
	if len(images) == 0 {
		return
	}
	product.Images = images
	if len(product.Skus) > 0 {
		ids := make([]string, len(images))
		for i, img := range images {
			ids[i] = img.ID
		}
		product.Skus[0].Images = ids
	}
}

func isWellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// sendProductV2 creates or updates the document. An id on the row means
// fetch-merge-update; a create conflict on a duplicate external id adopts
// the existing document when updates are allowed.
func (s *ImportService) sendProductV2(ctx context.Context, tenant models.Tenant, product *models.ProductRequestV2, doUpdate bool, log *rowLog) catalog.UpdateResult {
	if product.ID != "" {
		existing, err := s.catalog.GetProductV2(ctx, tenant, product.ID)
		if err != nil || existing == nil {
			log.linef("Product with Id '%s' does not exist.", product.ID)
			log.linef("Clear 'ProductId' cell to create new product.")
			return catalog.UpdateResult{Success: false, Message: "product not found"}
		}
		log.linef("Existing Product '%s'", product.ID)
		merged := mergeProductV2(existing, product, doUpdate)
		return s.catalog.UpdateProductV2(ctx, tenant, *merged)
	}

	res := s.catalog.CreateProductV2(ctx, tenant, *product)
	if res.Success || res.StatusCode != http.StatusConflict || !doUpdate {
		return res
	}
	log.linef("[%d] %s", res.StatusCode, res.Message)

	var existing *models.ProductRequestV2
	if conflict, ok := catalog.ClassifyConflict(res.Message); ok && conflict.Kind == catalog.ConflictProductDuplicateExternalID {
		var err error
		existing, err = s.catalog.GetProductByExternalIDV2(ctx, tenant, conflict.ID)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to fetch product by external id")
		}
	}
	if existing == nil {
		log.linef("Updating Product Id '%s'", product.ID)
		return s.catalog.UpdateProductV2(ctx, tenant, *product)
	}

	product.ID = existing.ID
	log.linef("Updating Existing Product Id '%s'", product.ID)
	merged := mergeProductV2(existing, product, doUpdate)
	return s.catalog.UpdateProductV2(ctx, tenant, *merged)
}

// mergeProductV2 folds the new document's SKUs into the existing document.
// Unknown SKUs are appended; matching SKUs are replaced only when updating.
func mergeProductV2(existing, incoming *models.ProductRequestV2, update bool) *models.ProductRequestV2 {
	for _, sku := range incoming.Skus {
		idx := -1
		for i, have := range existing.Skus {
			if have.ID == sku.ID {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			existing.Skus = append(existing.Skus, sku)
		case update:
			existing.Skus[idx] = sku
		}
	}
	return existing
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
