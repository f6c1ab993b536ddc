package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"sheets-catalog-connector/internal/models"
)

// HTTPClient is the REST implementation of Client. All calls share one rate
// limiter so import workers cannot starve the catalog API.
type HTTPClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *logrus.Logger
}

// NewHTTPClient creates a catalog client against the given base URL,
// limited to requestsPerSecond calls.
func NewHTTPClient(baseURL string, requestsPerSecond int, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:      logger,
	}
}

func (c *HTTPClient) CreateProduct(ctx context.Context, tenant models.Tenant, product models.ProductRequest) UpdateResult {
	return c.write(ctx, tenant, http.MethodPost, "/api/catalog/pvt/product", product)
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, tenant models.Tenant, productID string, product models.ProductRequest) UpdateResult {
	return c.write(ctx, tenant, http.MethodPut, "/api/catalog/pvt/product/"+url.PathEscape(productID), product)
}

func (c *HTTPClient) CreateSku(ctx context.Context, tenant models.Tenant, sku models.SkuRequest) UpdateResult {
	return c.write(ctx, tenant, http.MethodPost, "/api/catalog/pvt/stockkeepingunit", sku)
}

func (c *HTTPClient) UpdateSku(ctx context.Context, tenant models.Tenant, skuID string, sku models.SkuRequest) UpdateResult {
	return c.write(ctx, tenant, http.MethodPut, "/api/catalog/pvt/stockkeepingunit/"+url.PathEscape(skuID), sku)
}

func (c *HTTPClient) CreateEANGTIN(ctx context.Context, tenant models.Tenant, skuID, ean string) UpdateResult {
	path := fmt.Sprintf("/api/catalog/pvt/stockkeepingunit/%s/ean/%s", url.PathEscape(skuID), url.PathEscape(ean))
	return c.write(ctx, tenant, http.MethodPost, path, nil)
}

func (c *HTTPClient) CreateSkuFile(ctx context.Context, tenant models.Tenant, skuID, name, label string, isMain bool, imageURL string) UpdateResult {
	body := map[string]interface{}{
		"name":   name,
		"label":  label,
		"isMain": isMain,
		"url":    imageURL,
	}
	path := fmt.Sprintf("/api/catalog/pvt/stockkeepingunit/%s/file", url.PathEscape(skuID))
	res := c.write(ctx, tenant, http.MethodPost, path, body)
	if !res.Success {
		// A repeated upload of the same image reports a conflict even though
		// the archive is in place. Count it as success.
		if conflict, ok := ClassifyConflict(res.Message); ok && conflict.Kind == ConflictImageExists {
			res.Success = true
		}
	}
	return res
}

func (c *HTTPClient) CreatePrice(ctx context.Context, tenant models.Tenant, skuID string, price models.PriceRequest) UpdateResult {
	return c.write(ctx, tenant, http.MethodPut, "/api/pricing/prices/"+url.PathEscape(skuID), price)
}

func (c *HTTPClient) GetPrice(ctx context.Context, tenant models.Tenant, skuID string) (*models.PriceResponse, error) {
	var resp models.PriceResponse
	if err := c.get(ctx, tenant, "/api/pricing/prices/"+url.PathEscape(skuID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListAllWarehouses(ctx context.Context, tenant models.Tenant) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := c.get(ctx, tenant, "/api/logistics/pvt/configuration/warehouses", &warehouses); err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (c *HTTPClient) SetInventory(ctx context.Context, tenant models.Tenant, skuID, warehouseID string, inventory models.InventoryRequest) UpdateResult {
	path := fmt.Sprintf("/api/logistics/pvt/inventory/skus/%s/warehouses/%s", url.PathEscape(skuID), url.PathEscape(warehouseID))
	return c.write(ctx, tenant, http.MethodPut, path, inventory)
}

func (c *HTTPClient) SetProductSpecification(ctx context.Context, tenant models.Tenant, productID string, spec models.SpecAttribute) UpdateResult {
	path := fmt.Sprintf("/api/catalog/pvt/product/%s/specification", url.PathEscape(productID))
	return c.write(ctx, tenant, http.MethodPut, path, spec)
}

func (c *HTTPClient) SetSkuSpecification(ctx context.Context, tenant models.Tenant, skuID string, spec models.SpecAttribute) UpdateResult {
	path := fmt.Sprintf("/api/catalog/pvt/stockkeepingunit/%s/specification", url.PathEscape(skuID))
	return c.write(ctx, tenant, http.MethodPut, path, spec)
}

func (c *HTTPClient) AssignTradePolicy(ctx context.Context, tenant models.Tenant, productID, policyID string) UpdateResult {
	path := fmt.Sprintf("/api/catalog/pvt/product/%s/salespolicy/%s", url.PathEscape(productID), url.PathEscape(policyID))
	return c.write(ctx, tenant, http.MethodPost, path, nil)
}

func (c *HTTPClient) GetBrands(ctx context.Context, tenant models.Tenant) ([]models.Brand, error) {
	var brands []models.Brand
	if err := c.get(ctx, tenant, "/api/catalog_system/pvt/brand/list", &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

func (c *HTTPClient) GetCategoryTree(ctx context.Context, tenant models.Tenant, depth int) ([]models.CategoryTree, error) {
	var tree []models.CategoryTree
	if err := c.get(ctx, tenant, fmt.Sprintf("/api/catalog_system/pub/category/tree/%d", depth), &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *HTTPClient) GetProductAndSkuIDs(ctx context.Context, tenant models.Tenant, categoryID int64) (*models.ProductAndSkuIDs, error) {
	path := fmt.Sprintf("/api/catalog_system/pvt/products/GetProductAndSkuIds?categoryId=%d", categoryID)
	var ids models.ProductAndSkuIDs
	if err := c.get(ctx, tenant, path, &ids); err != nil {
		return nil, err
	}
	return &ids, nil
}

func (c *HTTPClient) GetProductSkus(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSku, error) {
	path := fmt.Sprintf("/api/catalog_system/pvt/sku/stockkeepingunitByProductId/%s", url.PathEscape(productID))
	var skus []models.ProductSku
	if err := c.get(ctx, tenant, path, &skus); err != nil {
		return nil, err
	}
	return skus, nil
}

func (c *HTTPClient) SearchProducts(ctx context.Context, tenant models.Tenant, query string) ([]models.ProductSearchItem, error) {
	path := "/api/catalog_system/pub/products/search/" + url.PathEscape(query)
	var items []models.ProductSearchItem
	if err := c.get(ctx, tenant, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetProductByID(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductByID, error) {
	var product models.ProductByID
	if err := c.get(ctx, tenant, "/api/catalog/pvt/product/"+url.PathEscape(productID), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *HTTPClient) GetSkuContext(ctx context.Context, tenant models.Tenant, skuID string) (*models.SkuContext, error) {
	var sku models.SkuContext
	if err := c.get(ctx, tenant, "/api/catalog_system/pvt/sku/stockkeepingunitbyid/"+url.PathEscape(skuID), &sku); err != nil {
		return nil, err
	}
	return &sku, nil
}

func (c *HTTPClient) GetProductSpecifications(ctx context.Context, tenant models.Tenant, productID string) ([]models.ProductSpecification, error) {
	var specs []models.ProductSpecification
	path := fmt.Sprintf("/api/catalog_system/pvt/products/%s/specification", url.PathEscape(productID))
	if err := c.get(ctx, tenant, path, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func (c *HTTPClient) GetSkuSpecifications(ctx context.Context, tenant models.Tenant, skuID string) ([]models.SkuSpecification, error) {
	var specs []models.SkuSpecification
	path := fmt.Sprintf("/api/catalog/pvt/stockkeepingunit/%s/specification", url.PathEscape(skuID))
	if err := c.get(ctx, tenant, path, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func (c *HTTPClient) GetProductV2(ctx context.Context, tenant models.Tenant, productID string) (*models.ProductRequestV2, error) {
	var product models.ProductRequestV2
	if err := c.get(ctx, tenant, c.v2Path(tenant, "/api/catalogv2/products/"+url.PathEscape(productID)), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *HTTPClient) GetProductByExternalIDV2(ctx context.Context, tenant models.Tenant, externalID string) (*models.ProductRequestV2, error) {
	var product models.ProductRequestV2
	path := c.v2Path(tenant, "/api/catalogv2/products/external/"+url.PathEscape(externalID))
	if err := c.get(ctx, tenant, path, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *HTTPClient) CreateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) UpdateResult {
	return c.write(ctx, tenant, http.MethodPost, c.v2Path(tenant, "/api/catalogv2/products"), product)
}

func (c *HTTPClient) UpdateProductV2(ctx context.Context, tenant models.Tenant, product models.ProductRequestV2) UpdateResult {
	path := c.v2Path(tenant, "/api/catalogv2/products/"+url.PathEscape(product.ID))
	return c.write(ctx, tenant, http.MethodPut, path, product)
}

func (c *HTTPClient) GetBrandsV2(ctx context.Context, tenant models.Tenant) (*models.BrandListV2, error) {
	var brands models.BrandListV2
	if err := c.get(ctx, tenant, c.v2Path(tenant, "/api/catalogv2/brands"), &brands); err != nil {
		return nil, err
	}
	return &brands, nil
}

func (c *HTTPClient) CreateBrandV2(ctx context.Context, tenant models.Tenant, brand models.CreateBrandV2Request) (*models.BrandV2, error) {
	res := c.write(ctx, tenant, http.MethodPost, c.v2Path(tenant, "/api/catalogv2/brands"), brand)
	if !res.Success {
		return nil, fmt.Errorf("failed to create brand %q: %s", brand.Name, res.Message)
	}
	var created models.BrandV2
	if err := json.Unmarshal([]byte(res.Message), &created); err != nil {
		return nil, fmt.Errorf("failed to decode created brand: %w", err)
	}
	return &created, nil
}

func (c *HTTPClient) GetCategoriesV2(ctx context.Context, tenant models.Tenant) (*models.CategoryListV2, error) {
	var categories models.CategoryListV2
	if err := c.get(ctx, tenant, c.v2Path(tenant, "/api/catalogv2/category-tree"), &categories); err != nil {
		return nil, err
	}
	return &categories, nil
}

func (c *HTTPClient) CreateCategoryV2(ctx context.Context, tenant models.Tenant, category models.CreateCategoryV2Request) (*models.CategoryV2, error) {
	res := c.write(ctx, tenant, http.MethodPost, c.v2Path(tenant, "/api/catalogv2/categories"), category)
	if !res.Success {
		return nil, fmt.Errorf("failed to create category %q: %s", category.Name, res.Message)
	}
	var created models.CreateCategoryV2Response
	if err := json.Unmarshal([]byte(res.Message), &created); err != nil {
		return nil, fmt.Errorf("failed to decode created category: %w", err)
	}
	if created.Value == nil {
		return nil, fmt.Errorf("category create for %q returned no category", category.Name)
	}
	return created.Value, nil
}

// v2Path appends the account name the v2 API routes on.
func (c *HTTPClient) v2Path(tenant models.Tenant, path string) string {
	if tenant.AccountName == "" {
		return path
	}
	return path + "?an=" + url.QueryEscape(tenant.AccountName)
}

// get performs a read and decodes the JSON response.
func (c *HTTPClient) get(ctx context.Context, tenant models.Tenant, path string, result interface{}) error {
	status, body, err := c.do(ctx, tenant, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("catalog returned status %d for %s: %s", status, path, string(body))
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode catalog response: %w", err)
		}
	}
	return nil
}

// write performs a catalog write and folds the outcome into an UpdateResult.
// The raw response body is preserved so callers can classify conflicts and
// decode created entities.
func (c *HTTPClient) write(ctx context.Context, tenant models.Tenant, method, path string, body interface{}) UpdateResult {
	status, respBody, err := c.do(ctx, tenant, method, path, body)
	if err != nil {
		return UpdateResult{Success: false, Message: err.Error()}
	}
	success := status >= 200 && status < 300
	if !success {
		c.logger.WithFields(logrus.Fields{
			"tenant_id": tenant.ID,
			"method":    method,
			"path":      path,
			"status":    status,
		}).Warn("Catalog write failed")
	}
	return UpdateResult{Success: success, StatusCode: status, Message: string(respBody)}
}

func (c *HTTPClient) do(ctx context.Context, tenant models.Tenant, method, path string, body interface{}) (int, []byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-Id", tenant.ID)
	if tenant.Credential != "" {
		req.Header.Set("X-Catalog-Credential", tenant.Credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
