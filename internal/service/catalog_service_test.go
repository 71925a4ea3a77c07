package service_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	svc      service.CatalogService
	products *fakeProductRepo
	audit    *fakeAuditRepo
	admin    service.Actor

	category *model.Category
	sub      *model.SubCategory
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		products: newFakeProductRepo(),
		audit:    &fakeAuditRepo{},
		admin:    service.Actor{UserID: uuid.New(), Role: model.RoleAdmin},
	}
	f.category = &model.Category{ID: uuid.New(), Name: "Construction"}
	f.products.categories[f.category.ID] = f.category
	f.sub = &model.SubCategory{ID: uuid.New(), CategoryID: f.category.ID, Name: "Steel"}
	f.products.subCategories[f.sub.ID] = f.sub

	f.svc = service.NewCatalogService(f.products, f.audit, fakeTxManager{})
	return f
}

func TestCatalogHierarchy(t *testing.T) {
	t.Run("sub-category requires an existing category", func(t *testing.T) {
		f := newCatalogFixture()

		_, err := f.svc.CreateSubCategory(context.Background(), service.CreateSubCategoryRequest{
			CategoryID: uuid.New().String(),
			Name:       "Timber",
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("sub-category listing filters by category", func(t *testing.T) {
		f := newCatalogFixture()
		other, err := f.svc.CreateCategory(context.Background(), service.CreateCategoryRequest{Name: "Electrical"})
		require.NoError(t, err)
		_, err = f.svc.CreateSubCategory(context.Background(), service.CreateSubCategoryRequest{
			CategoryID: other.ID.String(),
			Name:       "Cables",
		})
		require.NoError(t, err)

		subs, err := f.svc.ListSubCategories(context.Background(), other.ID.String())
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "Cables", subs[0].Name)

		all, err := f.svc.ListSubCategories(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestCreateProduct(t *testing.T) {
	t.Run("creates under an existing sub-category", func(t *testing.T) {
		f := newCatalogFixture()

		res, err := f.svc.CreateProduct(context.Background(), f.admin, service.CreateProductRequest{
			SubCategoryID: f.sub.ID.String(),
			SKU:           "SKU-001",
			Name:          "Steel Rod",
			Price:         "49.99",
			Quantity:      10,
		})

		require.NoError(t, err)
		assert.Equal(t, "49.99", res.Price)
		assert.Equal(t, 10, res.Quantity)
		require.Len(t, f.audit.entries, 1)
		assert.Equal(t, model.ActionCreateProduct, f.audit.entries[0].Action)
	})

	t.Run("duplicate SKU is rejected", func(t *testing.T) {
		f := newCatalogFixture()

		req := service.CreateProductRequest{
			SubCategoryID: f.sub.ID.String(),
			SKU:           "SKU-001",
			Name:          "Steel Rod",
			Price:         "49.99",
			Quantity:      10,
		}
		_, err := f.svc.CreateProduct(context.Background(), f.admin, req)
		require.NoError(t, err)

		req.Name = "Steel Rod v2"
		_, err = f.svc.CreateProduct(context.Background(), f.admin, req)

		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		f := newCatalogFixture()

		_, err := f.svc.CreateProduct(context.Background(), f.admin, service.CreateProductRequest{
			SubCategoryID: f.sub.ID.String(),
			SKU:           "SKU-001",
			Name:          "Steel Rod",
			Price:         "-1",
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	})

	t.Run("unknown sub-category is rejected", func(t *testing.T) {
		f := newCatalogFixture()

		_, err := f.svc.CreateProduct(context.Background(), f.admin, service.CreateProductRequest{
			SubCategoryID: uuid.New().String(),
			SKU:           "SKU-001",
			Name:          "Steel Rod",
			Price:         "10",
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestUpdateProduct(t *testing.T) {
	seed := func(f *catalogFixture) *model.Product {
		return f.products.add(&model.Product{
			SubCategoryID: f.sub.ID,
			SKU:           "SKU-001",
			Name:          "Steel Rod",
			Price:         decimal.NewFromInt(50),
			Quantity:      10,
		})
	}

	t.Run("partial update touches only the named fields", func(t *testing.T) {
		f := newCatalogFixture()
		product := seed(f)

		res, err := f.svc.UpdateProduct(context.Background(), f.admin, product.ID.String(), service.UpdateProductRequest{
			Price: "60",
		})

		require.NoError(t, err)
		assert.Equal(t, "60", res.Price)
		assert.Equal(t, "Steel Rod", res.Name)
		assert.Equal(t, 10, res.Quantity)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		f := newCatalogFixture()
		product := seed(f)
		neg := -1

		_, err := f.svc.UpdateProduct(context.Background(), f.admin, product.ID.String(), service.UpdateProductRequest{
			Quantity: &neg,
		})

		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidAmount, apperr.KindOf(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newCatalogFixture()

		_, err := f.svc.UpdateProduct(context.Background(), f.admin, uuid.New().String(), service.UpdateProductRequest{Name: "x"})

		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestDeleteProduct(t *testing.T) {
	f := newCatalogFixture()
	product := f.products.add(&model.Product{
		SubCategoryID: f.sub.ID,
		SKU:           "SKU-001",
		Name:          "Steel Rod",
		Price:         decimal.NewFromInt(50),
	})

	require.NoError(t, f.svc.DeleteProduct(context.Background(), f.admin, product.ID.String()))

	_, err := f.svc.GetProduct(context.Background(), product.ID.String())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
