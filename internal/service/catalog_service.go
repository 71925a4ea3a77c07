package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateSubCategoryRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

type CreateProductRequest struct {
	SubCategoryID string `json:"sub_category_id" binding:"required"`
	SKU           string `json:"sku" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Price         string `json:"price" binding:"required"`
	Quantity      int    `json:"quantity" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity *int   `json:"quantity"`
}

type ProductResponse struct {
	ID            string `json:"id"`
	SubCategoryID string `json:"sub_category_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Quantity      int    `json:"quantity"`
}

// --- Interface ---

// CatalogService owns the category / sub-category / product master data the
// order core reads for reservation.
type CatalogService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateSubCategory(ctx context.Context, req CreateSubCategoryRequest) (*model.SubCategory, error)
	ListSubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, actor Actor, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, actor Actor, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, actor Actor, id string) error
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{productRepo: productRepo, auditRepo: auditRepo, txManager: txManager}
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		SubCategoryID: p.SubCategoryID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price.String(),
		Quantity:      p.Quantity,
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.productRepo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.productRepo.ListCategories(ctx)
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	cid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid category id: %v", err)
	}
	if _, err := s.productRepo.FindCategoryByID(ctx, cid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category %s not found", id)
		}
		return err
	}
	return s.productRepo.DeleteCategory(ctx, cid)
}

func (s *catalogService) CreateSubCategory(ctx context.Context, req CreateSubCategoryRequest) (*model.SubCategory, error) {
	cid, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperr.Validation("invalid category_id: %v", err)
	}
	if _, err := s.productRepo.FindCategoryByID(ctx, cid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category %s not found", req.CategoryID)
		}
		return nil, err
	}
	sub := &model.SubCategory{CategoryID: cid, Name: req.Name}
	if err := s.productRepo.CreateSubCategory(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create sub-category: %w", err)
	}
	return sub, nil
}

func (s *catalogService) ListSubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error) {
	var cid *uuid.UUID
	if categoryID != "" {
		parsed, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, apperr.Validation("invalid category_id: %v", err)
		}
		cid = &parsed
	}
	return s.productRepo.ListSubCategories(ctx, cid)
}

func (s *catalogService) DeleteSubCategory(ctx context.Context, id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid sub-category id: %v", err)
	}
	if _, err := s.productRepo.FindSubCategoryByID(ctx, sid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("sub-category %s not found", id)
		}
		return err
	}
	return s.productRepo.DeleteSubCategory(ctx, sid)
}

func (s *catalogService) CreateProduct(ctx context.Context, actor Actor, req CreateProductRequest) (ProductResponse, error) {
	sid, err := uuid.Parse(req.SubCategoryID)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid sub_category_id: %v", err)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid price: %v", err)
	}
	if price.IsNegative() {
		return ProductResponse{}, apperr.InvalidAmount("price must not be negative")
	}

	if _, err := s.productRepo.FindSubCategoryByID(ctx, sid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, apperr.NotFound("sub-category %s not found", req.SubCategoryID)
		}
		return ProductResponse{}, err
	}

	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return ProductResponse{}, apperr.Validation("product with SKU '%s' already exists", req.SKU)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProductResponse{}, fmt.Errorf("failed to check SKU: %w", err)
	}

	product := model.Product{
		SubCategoryID: sid,
		SKU:           req.SKU,
		Name:          req.Name,
		Price:         price,
		Quantity:      req.Quantity,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, &product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}
		return s.auditProduct(txCtx, actor, model.ActionCreateProduct, &product, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(&product), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actor Actor, id string, req UpdateProductRequest) (ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid product id: %v", err)
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		product, findErr = s.productRepo.FindByIDForUpdate(txCtx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product %s not found", id)
			}
			return fmt.Errorf("failed to lock product: %w", findErr)
		}

		if req.Name != "" {
			product.Name = req.Name
		}
		if req.Price != "" {
			// Existing orders keep their snapshot price.
			price, parseErr := decimal.NewFromString(req.Price)
			if parseErr != nil {
				return apperr.Validation("invalid price: %v", parseErr)
			}
			if price.IsNegative() {
				return apperr.InvalidAmount("price must not be negative")
			}
			product.Price = price
		}
		if req.Quantity != nil {
			if *req.Quantity < 0 {
				return apperr.InvalidAmount("quantity must not be negative")
			}
			product.Quantity = *req.Quantity
		}

		if saveErr := s.productRepo.Update(txCtx, product); saveErr != nil {
			return fmt.Errorf("failed to update product: %w", saveErr)
		}
		return s.auditProduct(txCtx, actor, model.ActionUpdateProduct, product, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, actor Actor, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid product id: %v", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product %s not found", id)
			}
			return findErr
		}
		if delErr := s.productRepo.Delete(txCtx, pid); delErr != nil {
			return fmt.Errorf("failed to delete product: %w", delErr)
		}
		return s.auditProduct(txCtx, actor, model.ActionDeleteProduct, product, nil)
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid product id: %v", err)
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, apperr.NotFound("product %s not found", id)
		}
		return ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *catalogService) auditProduct(ctx context.Context, actor Actor, action string, product *model.Product, payload interface{}) error {
	details, _ := json.Marshal(payload)
	uid := actor.UserID
	audit := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   product.ID.String(),
		EntityName: product.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
