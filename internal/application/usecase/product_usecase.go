package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductUseCase CRUD de productos. Stock y costo promedio se manejan solo vía el motor de inventario.
type ProductUseCase struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	deps         CatalogDeps
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, deps CatalogDeps) *ProductUseCase {
	return &ProductUseCase{repo: repo, categoryRepo: categoryRepo, deps: deps.withDefaults()}
}

// Create crea un producto con stock y costo en 0. La categoría debe existir (domain.ErrNotFound).
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.CategoryID == "" || in.SellingPrice.LessThan(decimal.Zero) || !inventory.FitsScale(in.SellingPrice) {
		return nil, domain.ErrInvalidInput
	}
	category, err := uc.categoryRepo.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	now := uc.deps.Now().UTC()
	p := &entity.Product{
		ID:             uuid.New().String(),
		Name:           name,
		CategoryID:     category.ID,
		CategoryName:   category.Name,
		Unit:           strings.TrimSpace(in.Unit),
		SellingPrice:   in.SellingPrice,
		QuantityOnHand: decimal.Zero,
		AverageCost:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	uc.deps.invalidate(ctx, "create_product")
	out := dto.ProductFromEntity(p)
	return &out, nil
}

// GetByID obtiene un producto; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.ProductFromEntity(p)
	return &out, nil
}

// Update actualiza nombre, categoría, unidad y precio. No permite modificar stock ni costo.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		p.Name = name
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		category, err := uc.categoryRepo.GetByID(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		p.CategoryID = category.ID
		p.CategoryName = category.Name
	}
	if in.Unit != nil {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.SellingPrice != nil {
		if in.SellingPrice.LessThan(decimal.Zero) || !inventory.FitsScale(*in.SellingPrice) {
			return nil, domain.ErrInvalidInput
		}
		p.SellingPrice = *in.SellingPrice
	}
	p.UpdatedAt = uc.deps.Now().UTC()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	uc.deps.invalidate(ctx, "update_product")
	out := dto.ProductFromEntity(p)
	return &out, nil
}

// List lista productos ordenados por nombre, con filtro opcional de categoría y búsqueda por nombre.
func (uc *ProductUseCase) List(ctx context.Context, f dto.ProductFilter) ([]dto.ProductResponse, error) {
	list, err := uc.repo.List(ctx, repository.ProductFilter{CategoryID: f.CategoryID, Search: f.Search})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ProductFromEntity(p))
	}
	return out, nil
}

// Delete elimina el producto junto con sus recepciones y ventas.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.deps.invalidate(ctx, "delete_product")
	return nil
}
