package catalog

import (
	"context"
	"errors"

	"catalog/application/validation"
	"catalog/domain/catalog"
	"catalog/domain/shared"
	"catalog/pkg/result"
)

// Validators 返回本模块的全部校验器。
// 存储相关的校验器各自新建工作单元，可以与其他校验器并发运行。
func Validators(factory shared.UnitOfWorkFactory) []validation.Registration {
	return []validation.Registration{
		validation.For(validation.Struct[CreateCategory]()),
		validation.For(validation.Struct[CreateProduct]()),
		validation.ForFunc(uniqueSKU(factory)),
		validation.ForFunc(func(ctx context.Context, req CreateProduct) ([]result.FieldError, error) {
			return categoryExists(ctx, factory, req.CategoryID)
		}),
		validation.For(validation.Struct[UpdateProduct]()),
		validation.ForFunc(func(ctx context.Context, req UpdateProduct) ([]result.FieldError, error) {
			return categoryExists(ctx, factory, req.CategoryID)
		}),
		validation.For(validation.Struct[AdjustStock]()),
		validation.For(validation.Struct[DeleteProduct]()),
		validation.For(validation.Struct[GetProduct]()),
		validation.For(validation.Struct[ListProducts]()),
		validation.ForFunc(priceRange),
		validation.For(validation.Struct[GetProductHistory]()),
	}
}

func uniqueSKU(factory shared.UnitOfWorkFactory) func(context.Context, CreateProduct) ([]result.FieldError, error) {
	return func(ctx context.Context, req CreateProduct) ([]result.FieldError, error) {
		if catalog.NormalizeSKU(req.SKU) == "" {
			return nil, nil
		}
		existing, err := shared.RepositoryFor[*catalog.Product](factory.New()).
			Find(ctx, catalog.NewBySKUSpecification(req.SKU))
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return []result.FieldError{{Field: "SKU", Message: catalog.ErrDuplicateSKU.Error()}}, nil
		}
		return nil, nil
	}
}

func categoryExists(ctx context.Context, factory shared.UnitOfWorkFactory, id string) ([]result.FieldError, error) {
	if id == "" {
		return nil, nil
	}
	_, err := shared.RepositoryFor[*catalog.Category](factory.New()).Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return []result.FieldError{{Field: "CategoryID", Message: "category does not exist"}}, nil
	}
	return nil, err
}

func priceRange(_ context.Context, req ListProducts) ([]result.FieldError, error) {
	if req.MaxPrice > 0 && req.MaxPrice < req.MinPrice {
		return []result.FieldError{{Field: "MaxPrice", Message: "MaxPrice must not be less than MinPrice"}}, nil
	}
	return nil, nil
}
