package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"sheets-catalog-connector/internal/catalog"
	"sheets-catalog-connector/internal/config"
	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/sheet"
)

// fakeCatalog implements catalog.Client with canned responses and records the
// order of calls.
type fakeCatalog struct {
	calls []string

	createProductResult   catalog.UpdateResult
	updateProductResult   catalog.UpdateResult
	createSkuResult       catalog.UpdateResult
	updateSkuResult       catalog.UpdateResult
	writeResult           catalog.UpdateResult
	createProductV2Result catalog.UpdateResult
	updateProductV2Result catalog.UpdateResult

	warehouses    []models.Warehouse
	warehousesErr error

	// specResults is consumed one result per SetProductSpecification call;
	// once drained, writeResult applies.
	specResults []catalog.UpdateResult

	brands      []models.Brand
	tree        []models.CategoryTree
	categoryIDs map[int64]*models.ProductAndSkuIDs
	productSkus map[string][]models.ProductSku
	searchHits  []models.ProductSearchItem
	products    map[string]*models.ProductByID
	skuContexts map[string]*models.SkuContext
	prices      map[string]*models.PriceResponse
	prodSpecs   map[string][]models.ProductSpecification
	skuSpecs    map[string][]models.SkuSpecification

	brandsV2        *models.BrandListV2
	categoriesV2    *models.CategoryListV2
	createdBrand    *models.BrandV2
	createdCategory *models.CategoryV2
	productV2       *models.ProductRequestV2
	productByExtV2  *models.ProductRequestV2
	lastProductV2   models.ProductRequestV2
}

var _ catalog.Client = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	ok := catalog.UpdateResult{Success: true, StatusCode: 200, Message: "ok"}
	return &fakeCatalog{
		createProductResult:   ok,
		updateProductResult:   ok,
		createSkuResult:       ok,
		updateSkuResult:       ok,
		writeResult:           ok,
		createProductV2Result: ok,
		updateProductV2Result: ok,
	}
}

func (f *fakeCatalog) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeCatalog) CreateProduct(ctx context.Context, tenant models.Tenant, product models.ProductRequest) catalog.UpdateResult {
	f.record("CreateProduct")
	return f.createProductResult
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, tenant models.Tenant, productID string, product models.ProductRequest) catalog.UpdateResult {
	f.record("UpdateProduct")
	return f.updateProductResult
}

func (f *fakeCatalog) CreateSku(ctx context.Context, tenant models.Tenant, sku models.SkuRequest) catalog.UpdateResult {
	f.record("CreateSku")
	return f.createSkuResult
}

func (f *fakeCatalog) UpdateSku(ctx context.Context, tenant models.Tenant, skuID string, sku models.SkuRequest) catalog.UpdateResult {
	f.record("UpdateSku")
	return f.updateSkuResult
}

func (f *fakeCatalog) CreateEANGTIN(ctx context.Context, tenant models.Tenant, skuID, ean string) catalog.UpdateResult {
	f.record("CreateEANGTIN")
	return f.writeResult
}

func (f *fakeCatalog) CreateSkuFile(ctx context.Context, tenant models.Tenant, skuID, name, label string, isMain bool, imageURL string) catalog.UpdateResult {
	f.record("CreateSkuFile")
	return f.writeResult
}

func (f *fakeCatalog) CreatePrice(ctx context.Context, tenant models.Tenant, skuID string, price models.PriceRequest) catalog.UpdateResult {
	f.record("CreatePrice")
	return f.writeResult
}

func (f *fakeCatalog) GetPrice(ctx context.Context, tenant models.Tenant, skuID string) (*models.PriceResponse, error) {
	f.record("GetPrice")
	if price, ok := f.prices[skuID]; ok {
		return price, nil
	}
	return nil, errors.New("price not found")
}

func (f *fakeCatalog) ListAllWarehouses(ctx context.Context, tenant models.Tenant) ([]models.Warehouse, error) {
	f.record("ListAllWarehouses")
	return f.warehouses, f.warehousesErr
}

func (f *fakeCatalog) SetInventory(ctx context.Context, tenant models.Tenant, skuID, warehouseID string, inventory models.InventoryRequest) catalog.UpdateResult {
	f.record("SetInventory")
	return f.writeResult
}

func (f *fakeCatalog) SetProductSpecification(ctx context.Context, tenant models.Tenant, productID string, spec models.SpecAttribute) catalog.UpdateResult {
	f.record("SetProductSpecification")
	if len(f.specResults) > 0 {
		res := f.specResults[0]
		f.specResults = f.specResults[1:]
		return res
	}
	return f.writeResult
}

func (f *fakeCatalog) SetSkuSpecification(ctx context.Context, tenant models.Tenant, skuID string, spec models.SpecAttribute) catalog.UpdateResult {
	f.record("SetSkuSpecification")
	return f.writeResult
}

func (f *fakeCatalog) AssignTradePolicy(ctx context.Context, tenant models.Tenant, productID, policyID string) catalog.UpdateResult {
	f.record("AssignTradePolicy")
	return f.writeResult
}

func (f *fakeCatalog) GetBrands(ctx context.Context, tenant models.Tenant) ([]models.Brand, error) {
	f.record("GetBrands")
	return f.brands, nil
}

func (f *fakeCatalog) GetCategoryTree(ctx context.Context, tenant models.Tenant, depth int) ([]models.CategoryTree, error) {
	f.record("GetCategoryTree")
	return f.tree, nil
}

func (f *fakeCatalog) GetProductAndSkuIDs(ctx context.Context, tenant models.Tenant, categoryID int64) (*models.ProductAndSkuIDs, error) {
	f.record("GetProductAndSkuIDs")
	if ids, ok := f.categoryIDs[categoryID]; ok {
		return ids, nil
	}
	return &models.ProductAndSkuIDs{}, nil
}

func (f *fakeCatalog) GetProductSkus(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSku, error) {
	f.record("GetProductSkus")
	return f.productSkus[productID], nil
}

func (f *fakeCatalog) SearchProducts(ctx context.Context, tenant models.Tenant, query string) ([]models.ProductSearchItem, error) {
	f.record("SearchProducts")
	return f.searchHits, nil
}

func (f *fakeCatalog) GetProductByID(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductByID, error) {
	f.record("GetProductByID")
	if product, ok := f.products[productID]; ok {
		return product, nil
	}
	return nil, errors.New("product not found")
}

func (f *fakeCatalog) GetSkuContext(ctx context.Context, tenant models.Tenant, skuID string) (*models.SkuContext, error) {
	f.record("GetSkuContext")
	if sc, ok := f.skuContexts[skuID]; ok {
		return sc, nil
	}
	return nil, errors.New("sku not found")
}

func (f *fakeCatalog) GetProductSpecifications(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSpecification, error) {
	f.record("GetProductSpecifications")
	return f.prodSpecs[productID], nil
}

func (f *fakeCatalog) GetSkuSpecifications(ctx context.Context, tenant models.Tenant, skuID string) ([]models.SkuSpecification, error) {
	f.record("GetSkuSpecifications")
	return f.skuSpecs[skuID], nil
}

func (f *fakeCatalog) GetProductV2(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductRequestV2, error) {
	f.record("GetProductV2")
	return f.productV2, nil
}

func (f *fakeCatalog) GetProductByExternalIDV2(ctx context.Context, tenant models.Tenant, externalID string) (*models.ProductRequestV2, error) {
	f.record("GetProductByExternalIDV2")
	return f.productByExtV2, nil
}

func (f *fakeCatalog) CreateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) catalog.UpdateResult {
	f.record("CreateProductV2")
	f.lastProductV2 = product
	return f.createProductV2Result
}

func (f *fakeCatalog) UpdateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) catalog.UpdateResult {
	f.record("UpdateProductV2")
	f.lastProductV2 = product
	return f.updateProductV2Result
}

func (f *fakeCatalog) GetBrandsV2(ctx context.Context, tenant models.Tenant) (*models.BrandListV2, error) {
	f.record("GetBrandsV2")
	if f.brandsV2 == nil {
		return &models.BrandListV2{}, nil
	}
	return f.brandsV2, nil
}

func (f *fakeCatalog) CreateBrandV2(ctx context.Context, tenant models.Tenant, brand models.CreateBrandV2Request) (*models.BrandV2, error) {
	f.record("CreateBrandV2")
	if f.createdBrand == nil {
		return nil, errors.New("brand create failed")
	}
	return f.createdBrand, nil
}

func (f *fakeCatalog) GetCategoriesV2(ctx context.Context, tenant models.Tenant) (*models.CategoryListV2, error) {
	f.record("GetCategoriesV2")
	if f.categoriesV2 == nil {
		return &models.CategoryListV2{}, nil
	}
	return f.categoriesV2, nil
}

func (f *fakeCatalog) CreateCategoryV2(ctx context.Context, tenant models.Tenant, category models.CreateCategoryV2Request) (*models.CategoryV2, error) {
	f.record("CreateCategoryV2")
	if f.createdCategory == nil {
		return nil, errors.New("category create failed")
	}
	return f.createdCategory, nil
}

// fakeStore implements sheet.Store in memory.
type fakeWrite struct {
	fileID  string
	a1Range string
	values  [][]interface{}
}

type fakeStore struct {
	files    []sheet.File
	grids    map[string][][]string
	writes   []fakeWrite
	writeErr error
	cleared  []string
	resizes  [][2]int
	rules    []sheet.ValidationRule
}

var _ sheet.Store = (*fakeStore)(nil)

func (f *fakeStore) ListFiles(ctx context.Context, tenant models.Tenant, folderID string) ([]sheet.File, error) {
	return f.files, nil
}

func (f *fakeStore) ReadRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) ([][]string, error) {
	return f.grids[fileID], nil
}

func (f *fakeStore) WriteRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string, values [][]interface{}) error {
	f.writes = append(f.writes, fakeWrite{fileID: fileID, a1Range: a1Range, values: values})
	return f.writeErr
}

func (f *fakeStore) ClearRange(ctx context.Context, tenant models.Tenant, fileID, a1Range string) error {
	f.cleared = append(f.cleared, a1Range)
	return nil
}

func (f *fakeStore) AutoResizeColumns(ctx context.Context, tenant models.Tenant, fileID string, start, end int) error {
	f.resizes = append(f.resizes, [2]int{start, end})
	return nil
}

func (f *fakeStore) SetValidation(ctx context.Context, tenant models.Tenant, fileID string, rules []sheet.ValidationRule) error {
	f.rules = rules
	return nil
}

// fakeSettings implements SettingsStore.
type fakeSettings struct {
	lock        *models.ImportLock
	acquireOK   bool
	acquirePrev *time.Time
	acquired    bool
	released    bool
	folders     *models.TenantFolders
	appSettings *models.AppSettings
}

var _ SettingsStore = (*fakeSettings)(nil)

func newFakeSettings() *fakeSettings {
	return &fakeSettings{acquireOK: true}
}

func (f *fakeSettings) GetImportLock(tenantID string) (*models.ImportLock, error) {
	return f.lock, nil
}

func (f *fakeSettings) AcquireImportLock(tenantID, passID string, prev *time.Time) (bool, error) {
	f.acquired = true
	f.acquirePrev = prev
	return f.acquireOK, nil
}

func (f *fakeSettings) ClearImportLock(tenantID string) error {
	f.released = true
	return nil
}

func (f *fakeSettings) GetFolders(tenantID string) (*models.TenantFolders, error) {
	return f.folders, nil
}

func (f *fakeSettings) GetAppSettings(tenantID string) (*models.AppSettings, error) {
	if f.appSettings == nil {
		return &models.AppSettings{TenantID: tenantID}, nil
	}
	return f.appSettings, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LockTimeout:           30 * time.Minute,
		WriteBlockSizeDivisor: 10,
		MinWriteBlockSize:     5,
		DefaultSheetSize:      1000,
		ExportBlockSize:       5,
		CategoryTreeDepth:     10,
		VolumetricFactor:      166,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testHeader = []string{
	"ProductId", "SkuId", "Category", "Brand", "ProductName",
	"Product Reference Code", "SkuName", "Sku EAN/GTIN", "Sku Reference Code",
	"Height", "Width", "Length", "Weight", "Product Description",
	"Search Keywords", "Metatag Description", "Image URL 1", "Image URL 2",
	"Display if Out of Stock", "MSRP", "Selling Price (Price to GPP)",
	"Available Quantity", "ProductSpecs", "Sku Specs", "Trade Policy Id",
	"Status", "Message", "Update", "Activate Sku",
}

// testRow builds a sheet row from column name to value.
func testRow(cells map[string]string) []string {
	header := sheet.NewHeader(testHeader)
	row := make([]string, len(testHeader))
	for name, value := range cells {
		row[header.Index(name)] = value
	}
	return row
}

func newTestImportService(fc *fakeCatalog, fs *fakeStore, settings *fakeSettings) *ImportService {
	return NewImportService(testConfig(), fc, fs, settings, testLogger())
}

func TestProcessSheetSkipsDoneRows(t *testing.T) {
	fc := newFakeCatalog()
	fs := &fakeStore{
		files: []sheet.File{{ID: "f1", Name: "Products"}},
		grids: map[string][][]string{"f1": {
			testHeader,
			testRow(map[string]string{"status": "Done"}),
			testRow(map[string]string{"status": "Done"}),
		}},
	}
	settings := newFakeSettings()
	service := newTestImportService(fc, fs, settings)

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Done)
	assert.Equal(t, 0, result.Error)
	assert.Empty(t, fc.calls)

	// Status column Z, message column AA, minimum block of 5 rows.
	assert.Len(t, fs.writes, 1)
	assert.Equal(t, "Z2:AA6", fs.writes[0].a1Range)
	assert.Equal(t, []interface{}{nil, nil}, fs.writes[0].values[0])
	assert.Equal(t, []interface{}{nil, nil}, fs.writes[0].values[1])
	assert.Nil(t, fs.writes[0].values[2])

	assert.Equal(t, [2]int{24, 26}, fs.resizes[0])
	assert.True(t, settings.released)
}

func TestProcessSheetBlockedByActiveLock(t *testing.T) {
	settings := newFakeSettings()
	settings.lock = &models.ImportLock{
		TenantID:   "tenant-1",
		AcquiredAt: time.Now().Add(-time.Minute),
	}
	service := newTestImportService(newFakeCatalog(), &fakeStore{}, settings)

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Contains(t, result.Message, "in progress")
	assert.False(t, settings.acquired)
	assert.False(t, settings.released)
}

func TestProcessSheetTakesOverStaleLock(t *testing.T) {
	acquiredAt := time.Now().Add(-2 * time.Hour)
	settings := newFakeSettings()
	settings.lock = &models.ImportLock{TenantID: "tenant-1", AcquiredAt: acquiredAt}
	service := newTestImportService(newFakeCatalog(), &fakeStore{}, settings)

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.False(t, result.Blocked)
	assert.True(t, settings.acquired)
	assert.NotNil(t, settings.acquirePrev)
	assert.Equal(t, acquiredAt, *settings.acquirePrev)
	assert.True(t, settings.released)
}

func TestProcessSheetDuplicateProductIDWithoutUpdate(t *testing.T) {
	fc := newFakeCatalog()
	fc.createProductResult = catalog.UpdateResult{
		Success:    false,
		StatusCode: 409,
		Message:    "Product already created with this Id",
	}
	fc.createSkuResult = catalog.UpdateResult{
		Success:    true,
		StatusCode: 200,
		Message:    `{"id":456,"name":"Shirt"}`,
	}
	fs := &fakeStore{
		files: []sheet.File{{ID: "f1"}},
		grids: map[string][][]string{"f1": {
			testHeader,
			testRow(map[string]string{
				"productid":   "123",
				"productname": "Shirt",
				"skuname":     "Shirt S",
			}),
		}},
	}
	service := newTestImportService(fc, fs, newFakeSettings())

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, 0, result.Error)
	assert.NotContains(t, fc.calls, "UpdateProduct")

	assert.Len(t, fs.writes, 1)
	assert.Equal(t, "Done", fs.writes[0].values[0][0])
	trace := fs.writes[0].values[0][1].(string)
	assert.Contains(t, trace, "EAN/GTIN: Empty")
	assert.Contains(t, trace, "Images: Empty")
	assert.Contains(t, trace, "Price: Empty")
}

func TestProcessSheetInventoryFailures(t *testing.T) {
	newRow := func() [][]string {
		return [][]string{
			testHeader,
			testRow(map[string]string{
				"productname":        "Shirt",
				"skuname":            "Shirt S",
				"available quantity": "10",
			}),
		}
	}

	t.Run("warehouse list unavailable", func(t *testing.T) {
		fc := newFakeCatalog()
		fc.createProductResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":1}`}
		fc.createSkuResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":2}`}
		fc.warehousesErr = errors.New("logistics down")
		fs := &fakeStore{files: []sheet.File{{ID: "f1"}}, grids: map[string][][]string{"f1": newRow()}}
		service := newTestImportService(fc, fs, newFakeSettings())

		result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Error)
		assert.Contains(t, fs.writes[0].values[0][1].(string), "Inventory: Null Warehouse")
	})

	t.Run("no warehouse configured", func(t *testing.T) {
		fc := newFakeCatalog()
		fc.createProductResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":1}`}
		fc.createSkuResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":2}`}
		fs := &fakeStore{files: []sheet.File{{ID: "f1"}}, grids: map[string][][]string{"f1": newRow()}}
		service := newTestImportService(fc, fs, newFakeSettings())

		result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Error)
		assert.Contains(t, fs.writes[0].values[0][1].(string), "Inventory: No Warehouse")
	})
}

func TestProcessSheetFullRowCallOrder(t *testing.T) {
	fc := newFakeCatalog()
	fc.createProductResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":1}`}
	fc.createSkuResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":2}`}
	fc.warehouses = []models.Warehouse{{ID: "w1", Name: "Main"}}
	fs := &fakeStore{
		files: []sheet.File{{ID: "f1"}},
		grids: map[string][][]string{"f1": {
			testHeader,
			testRow(map[string]string{
				"productname":                 "Shirt",
				"skuname":                     "Shirt S",
				"sku ean/gtin":                "0123456789012",
				"image url 1":                 "https://img.example.com/1.png",
				"msrp":                        "$12.00",
				"selling price (price to gpp)": "9.99",
				"available quantity":          "10",
				"productspecs":                "Color:Red",
				"sku specs":                   "Size:M",
				"trade policy id":             "1",
				"activate sku":                "TRUE",
			}),
		}},
	}
	service := newTestImportService(fc, fs, newFakeSettings())

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, []string{
		"CreateProduct",
		"CreateSku",
		"CreateEANGTIN",
		"CreateSkuFile",
		"CreatePrice",
		"ListAllWarehouses",
		"SetInventory",
		"SetProductSpecification",
		"SetSkuSpecification",
		"UpdateSku",
		"AssignTradePolicy",
	}, fc.calls)
}

func TestProcessSheetV2CreatesDocument(t *testing.T) {
	fc := newFakeCatalog()
	fc.brandsV2 = &models.BrandListV2{Data: []models.BrandV2{{ID: "b1", Name: "Acme Corp"}}}
	fc.categoriesV2 = &models.CategoryListV2{Roots: []models.CategoryNodeV2{
		{Value: models.CategoryV2{ID: "c1", Name: "Clothing"}},
		{Value: models.CategoryV2{ID: "c2", Name: "Shirts"}},
	}}
	fc.createProductV2Result = catalog.UpdateResult{Success: true, StatusCode: 201, Message: "created"}
	fs := &fakeStore{
		files: []sheet.File{{ID: "f1"}},
		grids: map[string][][]string{"f1": {
			testHeader,
			testRow(map[string]string{
				"productname":  "Shirt",
				"brand":        "Acme",
				"category":     "Clothing/Shirts",
				"skuname":      "Shirt S",
				"image url 1":  "https://img.example.com/1.png",
				"activate sku": "TRUE",
			}),
		}},
	}
	settings := newFakeSettings()
	settings.appSettings = &models.AppSettings{TenantID: "tenant-1", IsV2Catalog: true}
	service := newTestImportService(fc, fs, settings)

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Contains(t, fc.calls, "CreateProductV2")
	assert.NotContains(t, fc.calls, "CreateBrandV2")
	assert.NotContains(t, fc.calls, "CreateCategoryV2")

	product := fc.lastProductV2
	assert.Equal(t, "b1", product.BrandID)
	assert.Equal(t, []string{"c2"}, product.CategoryIDs)
	assert.Equal(t, "active", product.Status)
	assert.Len(t, product.Skus, 1)
	assert.True(t, product.Skus[0].IsActive)
	assert.Len(t, product.Images, 1)
	assert.Equal(t, "Main", product.Images[0].ID)
	assert.Equal(t, []string{"Main"}, product.Skus[0].Images)
}

func TestProcessSheetContinuesWhenResultWriteFails(t *testing.T) {
	fc := newFakeCatalog()
	fc.createProductResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":1}`}
	fc.createSkuResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":2}`}
	fs := &fakeStore{
		files:    []sheet.File{{ID: "f1"}},
		writeErr: errors.New("sheet write failed"),
		grids: map[string][][]string{"f1": {
			testHeader,
			testRow(map[string]string{"productname": "Shirt", "skuname": "Shirt S"}),
			testRow(map[string]string{"productname": "Pants", "skuname": "Pants M"}),
		}},
	}
	settings := newFakeSettings()
	service := newTestImportService(fc, fs, settings)

	result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	// An unwritable result range never aborts the pass: every row still runs
	// against the catalog and the pass reports its counts.
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 2, result.Done)
	assert.Equal(t, 2, countCalls(fc.calls, "CreateProduct"))
	assert.Equal(t, 2, countCalls(fc.calls, "CreateSku"))
	assert.NotEmpty(t, fs.writes)
	assert.True(t, settings.released)
}

func TestProcessSheetSpecWriteRetriedOnce(t *testing.T) {
	throttled := catalog.UpdateResult{Success: false, StatusCode: 429, Message: "too many requests"}
	ok := catalog.UpdateResult{Success: true, StatusCode: 200, Message: "ok"}

	newFixture := func(specResults ...catalog.UpdateResult) (*fakeCatalog, *fakeStore) {
		fc := newFakeCatalog()
		fc.createProductResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":1}`}
		fc.createSkuResult = catalog.UpdateResult{Success: true, StatusCode: 200, Message: `{"id":2}`}
		fc.specResults = specResults
		fs := &fakeStore{
			files: []sheet.File{{ID: "f1"}},
			grids: map[string][][]string{"f1": {
				testHeader,
				testRow(map[string]string{
					"productname":  "Shirt",
					"skuname":      "Shirt S",
					"productspecs": "Color:Red",
				}),
			}},
		}
		return fc, fs
	}

	t.Run("throttled then accepted", func(t *testing.T) {
		fc, fs := newFixture(throttled, ok)
		service := newTestImportService(fc, fs, newFakeSettings())

		result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Done)
		assert.Equal(t, 2, countCalls(fc.calls, "SetProductSpecification"))
	})

	t.Run("still throttled after the single retry", func(t *testing.T) {
		fc, fs := newFixture(throttled, throttled)
		service := newTestImportService(fc, fs, newFakeSettings())

		result, err := service.ProcessSheet(context.Background(), models.Tenant{ID: "tenant-1"})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Error)
		// One retry and no more.
		assert.Equal(t, 2, countCalls(fc.calls, "SetProductSpecification"))
	})
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, call := range calls {
		if call == name {
			n++
		}
	}
	return n
}

func TestClearSheet(t *testing.T) {
	fs := &fakeStore{files: []sheet.File{{ID: "f1"}}}
	settings := newFakeSettings()
	service := newTestImportService(newFakeCatalog(), fs, settings)

	result, err := service.ClearSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, "Cleared", result.Message)
	assert.Equal(t, []string{"A2:ZZ1000"}, fs.cleared)
	assert.True(t, settings.acquired)
	assert.True(t, settings.released)
}

func TestClearSheetBlockedByActiveLock(t *testing.T) {
	settings := newFakeSettings()
	settings.lock = &models.ImportLock{TenantID: "tenant-1", AcquiredAt: time.Now()}
	fs := &fakeStore{files: []sheet.File{{ID: "f1"}}}
	service := newTestImportService(newFakeCatalog(), fs, settings)

	result, err := service.ClearSheet(context.Background(), models.Tenant{ID: "tenant-1"})

	assert.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Empty(t, fs.cleared)
}
