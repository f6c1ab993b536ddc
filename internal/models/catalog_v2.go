package models

// Catalog v2 shapes. The v2 API is document-oriented: SKUs, images and specs
// travel inside the product payload instead of through separate calls.

// ProductRequestV2 creates or updates a v2 product document.
type ProductRequestV2 struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	CategoryPath string          `json:"categoryPath"`
	BrandName    string          `json:"brandName"`
	BrandID      string          `json:"brandId,omitempty"`
	CategoryIDs  []string        `json:"categoryIds,omitempty"`
	ExternalID   string          `json:"externalId,omitempty"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	Condition    string          `json:"condition"`
	Type         string          `json:"type"`
	Images       []ImageV2       `json:"images"`
	Skus         []SkuV2         `json:"skus"`
	Attributes   []AttributeV2   `json:"attributes,omitempty"`
	Specs        []ProductSpecV2 `json:"specs,omitempty"`
}

// SkuV2 is one SKU inside a v2 product document.
type SkuV2 struct {
	ID         string       `json:"id,omitempty"`
	IsActive   bool         `json:"isActive"`
	Name       string       `json:"name"`
	ExternalID string       `json:"externalId,omitempty"`
	Ean        string       `json:"ean,omitempty"`
	Dimensions DimensionsV2 `json:"dimensions"`
	Weight     *float64     `json:"weight"`
	Sellers    []SellerV2   `json:"sellers"`
	Specs      []SkuSpecV2  `json:"specs,omitempty"`
	Images     []string     `json:"images,omitempty"`
}

// DimensionsV2 carries a SKU's physical dimensions.
type DimensionsV2 struct {
	Height *float64 `json:"height"`
	Length *float64 `json:"length"`
	Width  *float64 `json:"width"`
}

// SellerV2 is a marketplace seller reference on a v2 SKU.
type SellerV2 struct {
	ID string `json:"id"`
}

// ImageV2 is one image on a v2 product document.
type ImageV2 struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// AttributeV2 is a non-filterable product attribute (keywords, metatags).
type AttributeV2 struct {
	Name         string `json:"name"`
	Value        string `json:"value"`
	Description  string `json:"description"`
	IsFilterable bool   `json:"isFilterable"`
}

// ProductSpecV2 is one product-level specification.
type ProductSpecV2 struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// SkuSpecV2 is one SKU-level specification.
type SkuSpecV2 struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BrandV2 is one v2 brand.
type BrandV2 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BrandListV2 is the paged v2 brand listing.
type BrandListV2 struct {
	Data []BrandV2 `json:"data"`
}

// CategoryV2 is one v2 category.
type CategoryV2 struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// CategoryNodeV2 wraps a category in the v2 tree listing.
type CategoryNodeV2 struct {
	Value CategoryV2 `json:"value"`
}

// CategoryListV2 is the v2 category tree listing (flat roots).
type CategoryListV2 struct {
	Roots []CategoryNodeV2 `json:"roots"`
}

// CreateBrandV2Request creates a v2 brand.
type CreateBrandV2Request struct {
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// CreateCategoryV2Request creates a v2 category under an optional parent.
type CreateCategoryV2Request struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// CreateCategoryV2Response wraps the created v2 category.
type CreateCategoryV2Response struct {
	Value *CategoryV2 `json:"value"`
}
