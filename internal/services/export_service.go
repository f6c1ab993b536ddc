package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/catalog"
	"sheets-catalog-connector/internal/config"
	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/sheet"
)

// ExportService runs the inverse direction: it queries the catalog for a
// product set and serializes one row per SKU back into the tenant's sheets.
type ExportService struct {
	cfg      *config.Config
	catalog  catalog.Client
	store    sheet.Store
	settings SettingsStore
	logger   *logrus.Logger
}

// NewExportService creates a new export service
func NewExportService(cfg *config.Config, catalogClient catalog.Client, store sheet.Store, settings SettingsStore, logger *logrus.Logger) *ExportService {
	return &ExportService{
		cfg:      cfg,
		catalog:  catalogClient,
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

// ExportToSheet resolves a "type:param" query (all, category, brand,
// productid, product) into product ids and writes their SKUs into the
// tenant's sheets in fixed-size blocks.
func (s *ExportService) ExportToSheet(ctx context.Context, tenant models.Tenant, query string) (string, error) {
	tenant = s.resolveAccount(tenant)

	files, err := s.listSheets(ctx, tenant)
	if err != nil {
		return "", err
	}

	for _, file := range files {
		headerRow, err := s.store.ReadRange(ctx, tenant, file.ID, "A1:AZ1")
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", file.ID, err)
		}
		if len(headerRow) == 0 {
			return "Empty Spreadsheet Response.", nil
		}
		header := sheet.NewHeader(headerRow[0])

		categoryPaths, err := s.flattenedCategoryTree(ctx, tenant)
		if err != nil {
			return "", err
		}

		productIDs, err := s.resolveQuery(ctx, tenant, query, categoryPaths)
		if err != nil {
			return "", err
		}
		if len(productIDs) == 0 {
			continue
		}

		if err := s.writeProducts(ctx, tenant, file.ID, header, productIDs, categoryPaths); err != nil {
			return "", err
		}
	}

	return "Done", nil
}

// SearchTotal reports how many products and SKUs a query would export,
// without writing anything.
func (s *ExportService) SearchTotal(ctx context.Context, tenant models.Tenant, query string) (*models.SearchTotals, error) {
	tenant = s.resolveAccount(tenant)
	totals := &models.SearchTotals{}
	if query == "" {
		totals.Message = "Empty Search"
		return totals, nil
	}
	queryType, queryParam, _ := strings.Cut(query, ":")
	if queryType == "" || queryParam == "" {
		totals.Message = "Invalid Search"
		return totals, nil
	}

	switch strings.ToLower(queryType) {
	case "category":
		categoryPaths, err := s.flattenedCategoryTree(ctx, tenant)
		if err != nil {
			return nil, err
		}
		for categoryID, path := range categoryPaths {
			if !containsFold(path, queryParam) {
				continue
			}
			ids, err := s.catalog.GetProductAndSkuIDs(ctx, tenant, categoryID)
			if err != nil {
				return nil, err
			}
			if ids.Range.Total > 0 {
				for _, skuIDs := range ids.Data {
					totals.Products++
					totals.Skus += int64(len(skuIDs))
				}
			}
		}
	case "productid":
		totals.Products++
		skus, err := s.catalog.GetProductSkus(ctx, tenant, queryParam)
		if err != nil {
			return nil, err
		}
		totals.Skus += int64(len(skus))
	case "product":
		hits, err := s.catalog.SearchProducts(ctx, tenant, queryParam)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			totals.Products++
			skus, err := s.catalog.GetProductSkus(ctx, tenant, hit.ProductID)
			if err != nil {
				return nil, err
			}
			totals.Skus += int64(len(skus))
		}
	}

	totals.TotalRecords = totals.Skus
	return totals, nil
}

// resolveQuery turns a "type:param" query into the product id set to export.
func (s *ExportService) resolveQuery(ctx context.Context, tenant models.Tenant, query string, categoryPaths map[int64]string) ([]string, error) {
	var productIDs []string
	if query == "" {
		return nil, nil
	}
	queryType, queryParam, _ := strings.Cut(query, ":")

	appendCategory := func(categoryID int64) error {
		ids, err := s.catalog.GetProductAndSkuIDs(ctx, tenant, categoryID)
		if err != nil {
			return err
		}
		if ids.Range.Total > 0 {
			for productID := range ids.Data {
				productIDs = append(productIDs, productID)
			}
		}
		return nil
	}

	switch strings.ToLower(queryType) {
	case "all":
		for categoryID := range categoryPaths {
			if err := appendCategory(categoryID); err != nil {
				return nil, err
			}
		}
	case "category":
		for categoryID, path := range categoryPaths {
			if !containsFold(path, queryParam) {
				continue
			}
			if err := appendCategory(categoryID); err != nil {
				return nil, err
			}
		}
	case "productid":
		productIDs = append(productIDs, strings.Split(queryParam, ",")...)
	case "product":
		hits, err := s.catalog.SearchProducts(ctx, tenant, queryParam)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			productIDs = append(productIDs, hit.ProductID)
		}
	}
	return productIDs, nil
}

// writeProducts serializes each product's SKUs and flushes blocks covering
// the full column width.
func (s *ExportService) writeProducts(ctx context.Context, tenant models.Tenant, fileID string, header sheet.Header, productIDs []string, categoryPaths map[int64]string) error {
	blockSize := s.cfg.ExportBlockSize
	buffer := make([][]interface{}, 0, blockSize)
	offset := 0

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		a1Range := fmt.Sprintf("A%d:AZ%d", offset+2, offset+blockSize+1)
		if err := s.store.WriteRange(ctx, tenant, fileID, a1Range, buffer); err != nil {
			return fmt.Errorf("failed to write export block %s: %w", a1Range, err)
		}
		offset += blockSize
		buffer = buffer[:0]
		return nil
	}

	for _, productID := range productIDs {
		product, err := s.catalog.GetProductByID(ctx, tenant, productID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", productID).Warn("Failed to fetch product, skipping")
			continue
		}
		skus, err := s.catalog.GetProductSkus(ctx, tenant, productID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", productID).Warn("Failed to list product skus, skipping")
			continue
		}

		prodSpecs, err := s.catalog.GetProductSpecifications(ctx, tenant, productID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", productID).Warn("Failed to fetch product specifications")
		}

		for _, productSku := range skus {
			skuContext, err := s.catalog.GetSkuContext(ctx, tenant, productSku.ID)
			if err != nil {
				s.logger.WithError(err).WithField("sku_id", productSku.ID).Warn("Failed to fetch sku context, skipping")
				continue
			}
			price, err := s.catalog.GetPrice(ctx, tenant, productSku.ID)
			if err != nil {
				price = nil
			}
			skuSpecs, err := s.catalog.GetSkuSpecifications(ctx, tenant, productSku.ID)
			if err != nil {
				s.logger.WithError(err).WithField("sku_id", productSku.ID).Warn("Failed to fetch sku specifications")
			}

			buffer = append(buffer, s.exportRow(header, product, productSku, skuContext, price, prodSpecs, skuSpecs, categoryPaths))
			if len(buffer) == blockSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}

	return flush()
}

// exportRow lays one SKU out across the sheet's columns.
func (s *ExportService) exportRow(header sheet.Header, product *models.ProductByID, productSku models.ProductSku, skuContext *models.SkuContext, price *models.PriceResponse, prodSpecs []models.ProductSpecification, skuSpecs []models.SkuSpecification, categoryPaths map[int64]string) []interface{} {
	row := make([]interface{}, len(header))
	set := func(column string, value string) {
		if idx := header.Index(column); idx >= 0 && idx < len(row) {
			row[idx] = value
		}
	}

	set("productid", strconv.FormatInt(product.ID, 10))
	set("skuid", productSku.ID)
	set("category", categoryPaths[product.CategoryID])
	set("brand", skuContext.BrandName)
	set("productname", product.Name)
	set("product reference code", product.RefID)
	set("skuname", skuContext.NameComplete)
	set("sku ean/gtin", skuContext.AlternateIds.Ean)
	set("sku reference code", skuContext.AlternateIds.RefID)
	set("height", formatFloat(skuContext.Dimension.Height))
	set("width", formatFloat(skuContext.Dimension.Width))
	set("length", formatFloat(skuContext.Dimension.Length))
	set("weight", formatFloat(skuContext.Dimension.Weight))
	set("product description", product.DescriptionShort)
	set("search keywords", skuContext.KeyWords)
	set("metatag description", product.Description)
	set("image url 1", skuContext.ImageURL)
	set("display if out of stock", strings.ToUpper(strconv.FormatBool(product.ShowWithoutStock)))
	if price != nil {
		set("msrp", formatFloat(price.CostPrice))
		set("selling price (price to gpp)", formatFloat(price.BasePrice))
	}
	set("productspecs", sheet.EncodeSpecs(prodSpecs))
	set("sku specs", encodeSkuSpecs(prodSpecs, skuSpecs))
	return row
}

// encodeSkuSpecs renders SKU spec lines, resolving each value-id reference
// against the parent product's specification table to recover the name.
func encodeSkuSpecs(prodSpecs []models.ProductSpecification, skuSpecs []models.SkuSpecification) string {
	var sb strings.Builder
	for i, spec := range skuSpecs {
		if i > 0 {
			sb.WriteString("\n")
		}
		var name string
		for _, prodSpec := range prodSpecs {
			if prodSpec.ID == spec.FieldValueID {
				name = prodSpec.Name
				break
			}
		}
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(spec.Text)
	}
	return sb.String()
}

// flattenedCategoryTree maps leaf category ids to their full "parent/child"
// path.
func (s *ExportService) flattenedCategoryTree(ctx context.Context, tenant models.Tenant) (map[int64]string, error) {
	tree, err := s.catalog.GetCategoryTree(ctx, tenant, s.cfg.CategoryTreeDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category tree: %w", err)
	}
	return flattenCategories(tree), nil
}

func flattenCategories(tree []models.CategoryTree) map[int64]string {
	paths := make(map[int64]string)
	for _, node := range tree {
		if node.HasChildren {
			for id, childPath := range flattenCategories(node.Children) {
				paths[id] = fmt.Sprintf("%s/%s", node.Name, childPath)
			}
		} else {
			paths[node.ID] = node.Name
		}
	}
	return paths
}

func (s *ExportService) resolveAccount(tenant models.Tenant) models.Tenant {
	settings, err := s.settings.GetAppSettings(tenant.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load app settings")
		tenant.AccountName = tenant.ID
		return tenant
	}
	if settings.AccountName != "" {
		tenant.AccountName = settings.AccountName
	} else {
		tenant.AccountName = tenant.ID
	}
	return tenant
}

func (s *ExportService) listSheets(ctx context.Context, tenant models.Tenant) ([]sheet.File, error) {
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
