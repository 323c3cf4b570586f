package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// SupplierUseCase CRUD de proveedores (datos de referencia).
type SupplierUseCase struct {
	repo repository.SupplierRepository
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository) *SupplierUseCase {
	return &SupplierUseCase{repo: repo}
}

func (uc *SupplierUseCase) Create(ctx context.Context, s *entity.Supplier) (*entity.Supplier, error) {
	if s.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	s.ID = uuid.New().String()
	s.IsActive = true
	s.CreatedAt = now
	s.UpdatedAt = now
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *SupplierUseCase) List(ctx context.Context) ([]*entity.Supplier, error) {
	return uc.repo.List(ctx)
}

func (uc *SupplierUseCase) Update(ctx context.Context, id string, in *entity.Supplier) (*entity.Supplier, error) {
	supplier, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != "" {
		supplier.Name = in.Name
	}
	supplier.ContactPerson = in.ContactPerson
	supplier.Email = in.Email
	supplier.Phone = in.Phone
	supplier.Address = in.Address
	supplier.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (uc *SupplierUseCase) Deactivate(ctx context.Context, id string) error {
	return uc.repo.Deactivate(ctx, id)
}
