package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/catalog"
	"sheets-catalog-connector/internal/config"
	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/sheet"
)

// Category paths for the dropdown are flattened from the full tree, not the
// import depth.
const validationTreeDepth = 100

// ValidationService republishes the catalog's brand and category lists into
// the validation range and constrains the sheet's brand and category columns
// to them.
type ValidationService struct {
	cfg      *config.Config
	catalog  catalog.Client
	store    sheet.Store
	settings SettingsStore
	logger   *logrus.Logger
}

// NewValidationService creates a new validation service
func NewValidationService(cfg *config.Config, catalogClient catalog.Client, store sheet.Store, settings SettingsStore, logger *logrus.Logger) *ValidationService {
	return &ValidationService{
		cfg:      cfg,
		catalog:  catalogClient,
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// SetBrandList refreshes the validation range and the dropdown rules on the
// tenant's first sheet.
func (s *ValidationService) SetBrandList(ctx context.Context, tenant models.Tenant) (bool, error) {
	settings, err := s.settings.GetAppSettings(tenant.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load app settings: %w", err)
	}
	isV2 := settings.IsV2Catalog
	if settings.AccountName != "" {
		// A configured marketplace account is assumed to run the v1 catalog.
		tenant.AccountName = settings.AccountName
		isV2 = false
	} else {
		tenant.AccountName = tenant.ID
	}

	var folderID string
	folders, err := s.settings.GetFolders(tenant.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load folder registration: %w", err)
	}
	if folders != nil {
		folderID = folders.ProductsFolderID
	}
	files, err := s.store.ListFiles(ctx, tenant, folderID)
	if err != nil {
		return false, fmt.Errorf("failed to list sheets: %w", err)
	}
	if len(files) == 0 {
		return false, nil
	}
	fileID := files[0].ID

	headerRow, err := s.store.ReadRange(ctx, tenant, fileID, "A1:AZ1")
	if err != nil {
		return false, fmt.Errorf("failed to read sheet header: %w", err)
	}
	if len(headerRow) == 0 {
		return false, nil
	}
	header := sheet.NewHeader(headerRow[0])
	brandIdx := header.Index("brand")
	categoryIdx := header.Index("category")
	if brandIdx < 0 || categoryIdx < 0 {
		return false, fmt.Errorf("sheet %s is missing the brand or category column", fileID)
	}

	brands, categories, err := s.fetchLists(ctx, tenant, isV2)
	if err != nil {
		return false, err
	}

	// Validation range layout: categories in column A, brands in column B.
	rows := len(brands)
	if len(categories) > rows {
		rows = len(categories)
	}
	values := make([][]interface{}, rows)
	for i := 0; i < rows; i++ {
		var categoryName, brandName string
		if i < len(categories) {
			categoryName = categories[i]
		}
		if i < len(brands) {
			brandName = brands[i]
		}
		values[i] = []interface{}{categoryName, brandName}
	}

	a1Range := fmt.Sprintf("Validation!A1:B%d", rows)
	if err := s.store.WriteRange(ctx, tenant, fileID, a1Range, values); err != nil {
		return false, fmt.Errorf("failed to write validation range: %w", err)
	}

	categoryCol := sheet.ColumnLetter(categoryIdx)
	brandCol := sheet.ColumnLetter(brandIdx)
	rules := []sheet.ValidationRule{
		{
			Range:       fmt.Sprintf("%s2:%s%d", categoryCol, categoryCol, s.cfg.DefaultSheetSize),
			SourceRange: fmt.Sprintf("Validation!$A$1:$A$%d", len(categories)),
			Strict:      false,
		},
		{
			Range:       fmt.Sprintf("%s2:%s%d", brandCol, brandCol, s.cfg.DefaultSheetSize),
			SourceRange: fmt.Sprintf("Validation!$B$1:$B$%d", len(brands)),
			Strict:      false,
		},
	}
	if err := s.store.SetValidation(ctx, tenant, fileID, rules); err != nil {
		return false, fmt.Errorf("failed to set validation rules: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenant.ID,
		"brands":     len(brands),
		"categories": len(categories),
	}).Info("Refreshed brand and category validation")
	return true, nil
}

// fetchLists returns the brand names and category paths, each sorted
// alphabetically.
func (s *ValidationService) fetchLists(ctx context.Context, tenant models.Tenant, isV2 bool) ([]string, []string, error) {
	if isV2 {
		brandList, err := s.catalog.GetBrandsV2(ctx, tenant)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch brands: %w", err)
		}
		brands := make([]string, 0, len(brandList.Data))
		for _, b := range brandList.Data {
			brands = append(brands, b.Name)
		}
		sort.Strings(brands)

		categoryList, err := s.catalog.GetCategoriesV2(ctx, tenant)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch categories: %w", err)
		}
		categories := make([]string, 0, len(categoryList.Roots))
		for _, c := range categoryList.Roots {
			categories = append(categories, c.Value.Name)
		}
		sort.Strings(categories)
		return brands, categories, nil
	}

	brandList, err := s.catalog.GetBrands(ctx, tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch brands: %w", err)
	}
	brands := make([]string, 0, len(brandList))
	for _, b := range brandList {
		brands = append(brands, b.Name)
	}
	sort.Strings(brands)

	tree, err := s.catalog.GetCategoryTree(ctx, tenant, validationTreeDepth)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch category tree: %w", err)
	}
	paths := flattenCategories(tree)
	categories := make([]string, 0, len(paths))
	for _, path := range paths {
		categories = append(categories, path)
	}
	sort.Strings(categories)
	return brands, categories, nil
}
