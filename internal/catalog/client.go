package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when the catalog has no product for an ID
var ErrProductNotFound = errors.New("product not found")

// Cache is an optional read-through cache for the product list. A nil cache
// disables caching.
type Cache interface {
	GetProducts(ctx context.Context) ([]models.Product, bool)
	SetProducts(ctx context.Context, products []models.Product)
}

// Client fetches products and categories from the remote product service.
// The service answers with an envelope around DTO rows; the client maps them
// to the storefront's normalized records. Any transport or HTTP failure is
// surfaced as an opaque error for presentation, never recovered from here.
type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	logger  *zap.Logger
}

// NewClient creates a catalog client. cache may be nil.
func NewClient(baseURL string, timeout time.Duration, cache Cache) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  util.GetLogger(),
	}
}

// envelope is the generic response wrapper used by the product service
type envelope struct {
	Error   bool            `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type productListData struct {
	Rows []productItemDTO `json:"responseProductList"`
}

// productItemDTO is the company-enriched row served by the itemProduct
// endpoint. This is the superset variant: it carries brand data the plain
// product endpoint omits.
type productItemDTO struct {
	ProductItemID   int64       `json:"productItemId"`
	SKU             string      `json:"productItemSKU"`
	QuantityInStock int         `json:"productItemQuantityInStock"`
	Image           string      `json:"productItemImage"`
	Price           json.Number `json:"productItemPrice"`
	CompanyID       int64       `json:"companyId"`
	CompanyName     string      `json:"companyName"`
	CompanyTrade    string      `json:"companyTradeName"`
	CompanyImage    string      `json:"companyImage"`
	Category        categoryDTO `json:"responseCategoryy"`
}

type categoryDTO struct {
	ID          *int64  `json:"productCategoryId"`
	Name        *string `json:"productCategoryName"`
	Description string  `json:"productCategoryDescription"`
}

type categoryListData struct {
	Rows []categoryDTO `json:"responseCategoryList"`
}

// ListProducts returns all products in catalog order
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogClient.ListProducts")
	defer span.End()

	if c.cache != nil {
		if products, ok := c.cache.GetProducts(ctx); ok {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return products, nil
		}
		util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	var data productListData
	if err := c.get(ctx, "/itemProduct/pageable", "list_products", &data); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(data.Rows))
	for _, dto := range data.Rows {
		product, err := mapProductItem(dto)
		if err != nil {
			c.logger.Warn("Skipping malformed product row",
				zap.Int64("product_item_id", dto.ProductItemID),
				zap.Error(err))
			continue
		}
		products = append(products, product)
	}

	if c.cache != nil {
		c.cache.SetProducts(ctx, products)
	}

	return products, nil
}

// GetProduct returns the product with the given ID. The product service has
// no by-id endpoint, so this filters the list.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
}

// ListCategories returns all categories
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogClient.ListCategories")
	defer span.End()

	var data categoryListData
	if err := c.get(ctx, "/category/list/pageable", "list_categories", &data); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(data.Rows))
	for _, dto := range data.Rows {
		if dto.ID == nil || dto.Name == nil {
			continue
		}
		categories = append(categories, models.Category{
			ID:          *dto.ID,
			Name:        *dto.Name,
			Description: dto.Description,
		})
	}

	return categories, nil
}

// ListProductsByCategory returns the products belonging to a category,
// filtered client-side the way the storefront does.
func (c *Client) ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category != nil && p.Category.ID == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (c *Client) get(ctx context.Context, path, operation string, out interface{}) error {
	start := time.Now()
	defer func() {
		util.CatalogRequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("catalog request failed (%d): %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode catalog envelope: %w", err)
	}
	if env.Error {
		return fmt.Errorf("catalog error %s: %s", env.Code, env.Message)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode catalog payload: %w", err)
	}
	return nil
}

func mapProductItem(dto productItemDTO) (models.Product, error) {
	price := decimal.Zero
	if dto.Price != "" {
		parsed, err := decimal.NewFromString(dto.Price.String())
		if err != nil {
			return models.Product{}, fmt.Errorf("bad price %q: %w", dto.Price, err)
		}
		price = parsed
	}

	product := models.Product{
		ID:          dto.ProductItemID,
		Name:        dto.SKU,
		Description: dto.SKU,
		Price:       price,
		Stock:       dto.QuantityInStock,
		ImageURL:    dto.Image,
	}

	if dto.Category.ID != nil && dto.Category.Name != nil {
		product.Category = &models.Category{
			ID:          *dto.Category.ID,
			Name:        *dto.Category.Name,
			Description: dto.Category.Description,
		}
	}

	if dto.CompanyID != 0 {
		name := dto.CompanyTrade
		if name == "" {
			name = dto.CompanyName
		}
		product.Company = &models.Company{
			ID:          dto.CompanyID,
			Name:        name,
			Description: dto.CompanyName,
			LogoURL:     dto.CompanyImage,
		}
	}

	return product, nil
}
