package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/money"
	"github.com/angelmondragon/shop-backend/pkg/pagination"
)

type converter interface {
	Convert(base decimal.Decimal, currency string) decimal.Decimal
}

type catalogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, cursor *pagination.Cursor) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	ProductOrdered(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// Service exposes the catalog.
type Service interface {
	List(ctx context.Context, params pagination.Params, currency string) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID, currency string) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type CreateProductInput struct {
	CategoryID  uuid.UUID
	Name        string
	Description string
	PriceUSD    decimal.Decimal
	Stock       int
}

// UpdateProductInput carries a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	PriceUSD    *decimal.Decimal
	Stock       *int
}

type CreateCategoryInput struct {
	Name string
	Slug string
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type service struct {
	repo catalogRepository
	conv converter
}

func NewService(repo catalogRepository, conv converter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if conv == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	return &service{repo: repo, conv: conv}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, currency string) (pagination.Page[ProductDTO], error) {
	currency = money.Normalize(currency)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, params, cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page := pagination.Trim(rows, params, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	out := pagination.Page[ProductDTO]{Items: make([]ProductDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, p := range page.Items {
		out.Items = append(out.Items, toProductDTO(p, s.conv, currency))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, currency string) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toProductDTO(*product, s.conv, money.Normalize(currency))
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePriceAndStock(&input.PriceUSD, &input.Stock); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.Product{
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		PriceUSD:    input.PriceUSD.Round(2),
		Stock:       input.Stock,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := toProductDTO(*created, s.conv, money.BaseCurrency)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validatePriceAndStock(input.PriceUSD, input.Stock); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.PriceUSD != nil {
		fields["price_usd"] = input.PriceUSD.Round(2)
	}
	if input.Stock != nil {
		fields["stock"] = *input.Stock
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
	}
	return s.Get(ctx, id, money.BaseCurrency)
}

// Delete removes a product that no order references. Ordered products stay so
// order lines keep their product; managers set their stock to 0 instead.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	ordered, err := s.repo.ProductOrdered(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order lines")
	}
	if ordered {
		return pkgerrors.New(pkgerrors.CodeConflict, "product has been ordered and cannot be deleted")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		case pkgerrors.IsForeignKeyViolation(err):
			return pkgerrors.New(pkgerrors.CodeConflict, "product has been ordered and cannot be deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, toCategoryDTO(c))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !slugRe.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and dashes")
	}
	created, err := s.repo.CreateCategory(ctx, &models.Category{Name: name, Slug: slug})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	dto := toCategoryDTO(*created)
	return &dto, nil
}

// DeleteCategory removes an empty category.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	inUse, err := s.repo.CategoryInUse(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category products")
	}
	if inUse {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		case pkgerrors.IsForeignKeyViolation(err):
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func validatePriceAndStock(price *decimal.Decimal, stock *int) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_usd must be non-negative")
	}
	if stock != nil && *stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	return nil
}
