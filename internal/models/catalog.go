package models

// Catalog v1 request/response shapes. Identifiers are pointers where the
// create path sends none and the catalog assigns one.

// ProductRequest creates or updates a v1 product.
type ProductRequest struct {
	ID                 *int64 `json:"id,omitempty"`
	Name               string `json:"name"`
	CategoryPath       string `json:"categoryPath"`
	BrandName          string `json:"brandName"`
	RefID              string `json:"refId"`
	Title              string `json:"title"`
	LinkID             string `json:"linkId"`
	Description        string `json:"description"`
	ReleaseDate        string `json:"releaseDate"`
	KeyWords           string `json:"keyWords"`
	IsVisible          bool   `json:"isVisible"`
	IsActive           bool   `json:"isActive"`
	TaxCode            string `json:"taxCode"`
	MetaTagDescription string `json:"metaTagDescription"`
	ShowWithoutStock   bool   `json:"showWithoutStock"`
	Score              int    `json:"score"`
}

// ProductResponse is the catalog's echo of a created v1 product.
type ProductResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SkuRequest creates or updates a v1 SKU.
type SkuRequest struct {
	ID                  *int64   `json:"id,omitempty"`
	ProductID           int64    `json:"productId"`
	IsActive            bool     `json:"isActive"`
	Name                string   `json:"name"`
	RefID               string   `json:"refId"`
	PackagedHeight      *float64 `json:"packagedHeight"`
	PackagedLength      *float64 `json:"packagedLength"`
	PackagedWidth       *float64 `json:"packagedWidth"`
	PackagedWeightKg    *float64 `json:"packagedWeightKg"`
	CubicWeight         *float64 `json:"cubicWeight"`
	IsKit               bool     `json:"isKit"`
	CommercialCondition int      `json:"commercialConditionId"`
	MeasurementUnit     string   `json:"measurementUnit"`
	UnitMultiplier      float64  `json:"unitMultiplier"`
	KitItemsSellApart   bool     `json:"kitItensSellApart"`
}

// SkuResponse is the catalog's echo of a created v1 SKU.
type SkuResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PriceRequest sets list/selling prices for a SKU.
type PriceRequest struct {
	BasePrice float64 `json:"basePrice"`
	ListPrice float64 `json:"listPrice"`
	CostPrice float64 `json:"costPrice"`
}

// PriceResponse carries the prices currently stored for a SKU.
type PriceResponse struct {
	BasePrice float64 `json:"basePrice"`
	ListPrice float64 `json:"listPrice"`
	CostPrice float64 `json:"costPrice"`
}

// InventoryRequest sets the available quantity in one warehouse.
type InventoryRequest struct {
	DateUTCOnBalanceSystem *string `json:"dateUtcOnBalanceSystem"`
	Quantity               int64   `json:"quantity"`
	UnlimitedQuantity      bool    `json:"unlimitedQuantity"`
}

// Warehouse is one logistics warehouse.
type Warehouse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Brand is one v1 catalog brand.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryTree is one node of the v1 category tree.
type CategoryTree struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	HasChildren bool           `json:"hasChildren"`
	Children    []CategoryTree `json:"children"`
}

// ProductAndSkuIDs maps product ids to their SKU ids within a category.
type ProductAndSkuIDs struct {
	Data  map[string][]int64 `json:"data"`
	Range struct {
		Total int `json:"total"`
	} `json:"range"`
}

// ProductSku is one SKU belonging to a product.
type ProductSku struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SkuContext is the full SKU-and-context view used by the export path.
type SkuContext struct {
	ID           int64  `json:"id"`
	NameComplete string `json:"nameComplete"`
	BrandName    string `json:"brandName"`
	IsActive     bool   `json:"isActive"`
	KeyWords     string `json:"keyWords"`
	ImageURL     string `json:"imageUrl"`
	AlternateIds struct {
		Ean   string `json:"ean"`
		RefID string `json:"refId"`
	} `json:"alternateIds"`
	Dimension struct {
		Height float64 `json:"height"`
		Width  float64 `json:"width"`
		Length float64 `json:"length"`
		Weight float64 `json:"weight"`
	} `json:"dimension"`
}

// ProductByID is the product detail view used by the export path.
type ProductByID struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	RefID            string `json:"refId"`
	CategoryID       int64  `json:"categoryId"`
	Description      string `json:"description"`
	DescriptionShort string `json:"descriptionShort"`
	ShowWithoutStock bool   `json:"showWithoutStock"`
}

// ProductSpecification is one specification attached to a product.
type ProductSpecification struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Value []string `json:"value"`
}

// SkuSpecification is one specification value attached to a SKU. FieldValueID
// references the parent product's specification id.
type SkuSpecification struct {
	FieldValueID int64  `json:"fieldValueId"`
	Text         string `json:"text"`
}

// ProductSearchItem is one hit from the free-text product search.
type ProductSearchItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
}
