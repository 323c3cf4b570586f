package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// SupplierRepository define el puerto CRUD de proveedores.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	List(ctx context.Context) ([]*entity.Supplier, error)
	Update(ctx context.Context, supplier *entity.Supplier) error
	Deactivate(ctx context.Context, id string) error
}
