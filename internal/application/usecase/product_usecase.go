package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock nunca se edita
// aquí: la fila de saldo nace en cero junto al producto y de ahí en adelante
// solo cambia vía transacciones del ledger.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner CatalogTxRunner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner CatalogTxRunner) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner}
}

// Create crea un producto y su fila de stock en cero en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, actor string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitCost.LessThan(decimal.Zero) || in.SellingPrice.LessThan(decimal.Zero) || in.ReorderLevel < 0 {
		return nil, domain.ErrInvalidInput
	}
	existing, _ := uc.repo.GetBySKU(ctx, in.SKU)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		SKU:          in.SKU,
		Name:         in.Name,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		SupplierID:   in.SupplierID,
		UnitCost:     in.UnitCost,
		SellingPrice: in.SellingPrice,
		ReorderLevel: in.ReorderLevel,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := uc.txRunner.RunCatalog(ctx, func(
		productRepo repository.ProductRepository,
		stockRepo repository.StockRepository,
	) error {
		if err := productRepo.Create(ctx, product); err != nil {
			return err
		}
		return stockRepo.CreateZero(ctx, product.ID, actor)
	})
	if err != nil {
		return nil, err
	}
	return dto.ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return dto.ToProductResponse(product), nil
}

// List lista productos activos paginados.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) ([]*dto.ProductResponse, error) {
	products, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.ToProductResponse(p))
	}
	return out, nil
}

// Update actualiza los campos editables del producto.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	if in.SupplierID != nil {
		product.SupplierID = *in.SupplierID
	}
	if in.UnitCost != nil {
		if in.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.UnitCost = *in.UnitCost
	}
	if in.SellingPrice != nil {
		if in.SellingPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		product.SellingPrice = *in.SellingPrice
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, domain.ErrInvalidInput
		}
		product.ReorderLevel = *in.ReorderLevel
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return dto.ToProductResponse(product), nil
}

// Deactivate desactiva un producto; su fila de stock queda para historial.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrProductNotFound
	}
	return uc.repo.Deactivate(ctx, id)
}
