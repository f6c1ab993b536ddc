package catalog

import (
	"context"

	"sheets-catalog-connector/internal/models"
)

// UpdateResult reports the outcome of one catalog write. Failed writes keep
// the response body in Message so callers can classify conflicts.
type UpdateResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Client is the catalog API surface the connector depends on. Entity ids are
// strings because the import pipeline adopts ids parsed out of conflict
// messages. Writes report through UpdateResult rather than errors because
// most failures are row-level outcomes, not pipeline failures.
type Client interface {
	// v1 products and SKUs.
	CreateProduct(ctx context.Context, tenant models.Tenant, product models.ProductRequest) UpdateResult
	UpdateProduct(ctx context.Context, tenant models.Tenant, productID string, product models.ProductRequest) UpdateResult
	CreateSku(ctx context.Context, tenant models.Tenant, sku models.SkuRequest) UpdateResult
	UpdateSku(ctx context.Context, tenant models.Tenant, skuID string, sku models.SkuRequest) UpdateResult

	// v1 SKU satellites.
	CreateEANGTIN(ctx context.Context, tenant models.Tenant, skuID, ean string) UpdateResult
	CreateSkuFile(ctx context.Context, tenant models.Tenant, skuID, name, label string, isMain bool, imageURL string) UpdateResult
	CreatePrice(ctx context.Context, tenant models.Tenant, skuID string, price models.PriceRequest) UpdateResult
	GetPrice(ctx context.Context, tenant models.Tenant, skuID string) (*models.PriceResponse, error)
	ListAllWarehouses(ctx context.Context, tenant models.Tenant) ([]models.Warehouse, error)
	SetInventory(ctx context.Context, tenant models.Tenant, skuID, warehouseID string, inventory models.InventoryRequest) UpdateResult
	SetProductSpecification(ctx context.Context, tenant models.Tenant, productID string, spec models.SpecAttribute) UpdateResult
	SetSkuSpecification(ctx context.Context, tenant models.Tenant, skuID string, spec models.SpecAttribute) UpdateResult
	AssignTradePolicy(ctx context.Context, tenant models.Tenant, productID, policyID string) UpdateResult

	// v1 reference data and export reads.
	GetBrands(ctx context.Context, tenant models.Tenant) ([]models.Brand, error)
	GetCategoryTree(ctx context.Context, tenant models.Tenant, depth int) ([]models.CategoryTree, error)
	GetProductAndSkuIDs(ctx context.Context, tenant models.Tenant, categoryID int64) (*models.ProductAndSkuIDs, error)
	GetProductSkus(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSku, error)
	SearchProducts(ctx context.Context, tenant models.Tenant, query string) ([]models.ProductSearchItem, error)
	GetProductByID(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductByID, error)
	GetSkuContext(ctx context.Context, tenant models.Tenant, skuID string) (*models.SkuContext, error)
	GetProductSpecifications(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSpecification, error)
	GetSkuSpecifications(ctx context.Context, tenant models.Tenant, skuID string) ([]models.SkuSpecification, error)

	// v2 documents and reference data.
	GetProductV2(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductRequestV2, error)
	GetProductByExternalIDV2(ctx context.Context, tenant models.Tenant, externalID string) (*models.ProductRequestV2, error)
	CreateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) UpdateResult
	UpdateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) UpdateResult
	GetBrandsV2(ctx context.Context, tenant models.Tenant) (*models.BrandListV2, error)
	CreateBrandV2(ctx context.Context, tenant models.Tenant, brand models.CreateBrandV2Request) (*models.BrandV2, error)
	GetCategoriesV2(ctx context.Context, tenant models.Tenant) (*models.CategoryListV2, error)
	CreateCategoryV2(ctx context.Context, tenant models.Tenant, category models.CreateCategoryV2Request) (*models.CategoryV2, error)
}
