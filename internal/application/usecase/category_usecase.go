package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// CategoryUseCase CRUD de categorías. El nombre es único sin distinguir mayúsculas.
type CategoryUseCase struct {
	repo        repository.CategoryRepository
	productRepo repository.ProductRepository
	deps        CatalogDeps
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository, productRepo repository.ProductRepository, deps CatalogDeps) *CategoryUseCase {
	return &CategoryUseCase{repo: repo, productRepo: productRepo, deps: deps.withDefaults()}
}

// Create crea una categoría. Devuelve domain.ErrDuplicate si el nombre ya existe.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}
	now := uc.deps.Now().UTC()
	c := &entity.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.deps.invalidate(ctx, "create_category")
	out := dto.CategoryFromEntity(c)
	return &out, nil
}

// GetByID obtiene una categoría; domain.ErrNotFound si no existe.
func (uc *CategoryUseCase) GetByID(ctx context.Context, id string) (*dto.CategoryResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.CategoryFromEntity(c)
	return &out, nil
}

// Update aplica los campos presentes en la entrada.
func (uc *CategoryUseCase) Update(ctx context.Context, id string, in dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		if err := uc.ensureNameFree(ctx, name, c.ID); err != nil {
			return nil, err
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	c.UpdatedAt = uc.deps.Now().UTC()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	uc.deps.invalidate(ctx, "update_category")
	out := dto.CategoryFromEntity(c)
	return &out, nil
}

// List devuelve todas las categorías ordenadas por nombre.
func (uc *CategoryUseCase) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryFromEntity(c))
	}
	return out, nil
}

// Delete elimina la categoría. Con productos asociados devuelve domain.ErrConflict.
func (uc *CategoryUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := uc.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrConflict
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.deps.invalidate(ctx, "delete_category")
	return nil
}

func (uc *CategoryUseCase) ensureNameFree(ctx context.Context, name, exceptID string) error {
	existing, err := uc.repo.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return domain.ErrDuplicate
	}
	return nil
}
