package catalog

import (
	"context"
	"errors"

	"catalog/application/mediator"
	"catalog/domain/catalog"
	"catalog/domain/shared"
	"catalog/pkg/result"

	"go.uber.org/zap"
)

// Handlers 商品目录的请求处理器。
//
// 处理器优先使用上下文中的事务工作单元（由事务行为放入）；
// 不经过流水线直接调用时退化为新建工作单元，SaveChanges 走隐式事务。
type Handlers struct {
	factory shared.UnitOfWorkFactory
	log     *zap.Logger
}

// NewHandlers 创建处理器集合
func NewHandlers(factory shared.UnitOfWorkFactory, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{factory: factory, log: log}
}

// Registrations 返回全部处理器注册项
func (h *Handlers) Registrations() []mediator.Registration {
	return []mediator.Registration{
		mediator.HandleFunc(h.CreateCategory),
		mediator.HandleFunc(h.CreateProduct),
		mediator.HandleFunc(h.UpdateProduct),
		mediator.HandleFunc(h.AdjustStock),
		mediator.HandleFunc(h.DeleteProduct),
		mediator.HandleFunc(h.GetProduct),
		mediator.HandleFunc(h.ListProducts),
		mediator.HandleFunc(h.ListCategories),
		mediator.HandleFunc(h.GetProductHistory),
	}
}

// ============================================================================
// Commands
// ============================================================================

func (h *Handlers) CreateCategory(ctx context.Context, req CreateCategory) (result.Result[CategoryResponse], error) {
	c, err := catalog.NewCategory(req.Name, req.Description)
	if err != nil {
		return failure[CategoryResponse](err)
	}

	uow := shared.UnitOfWorkOrNew(ctx, h.factory)
	if err := shared.RepositoryFor[*catalog.Category](uow).Add(ctx, c); err != nil {
		return result.Result[CategoryResponse]{}, err
	}
	if err := uow.SaveChanges(ctx); err != nil {
		return result.Result[CategoryResponse]{}, err
	}

	h.log.Info("Category created", zap.String("category_id", c.ID), zap.String("name", c.Name))
	return result.Success(toCategoryResponse(c)), nil
}

func (h *Handlers) CreateProduct(ctx context.Context, req CreateProduct) (result.Result[ProductResponse], error) {
	p, err := catalog.NewProduct(catalog.ProductOptions{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       shared.NewMoney(req.Price, req.Currency),
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return failure[ProductResponse](err)
	}

	uow := shared.UnitOfWorkOrNew(ctx, h.factory)
	if err := shared.RepositoryFor[*catalog.Product](uow).Add(ctx, p); err != nil {
		return result.Result[ProductResponse]{}, err
	}
	// Flush now so the response carries the stamped ID and audit fields.
	if err := uow.SaveChanges(ctx); err != nil {
		return result.Result[ProductResponse]{}, err
	}

	h.log.Info("Product created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int64("price", p.Price.Amount))
	return result.Success(toProductResponse(p)), nil
}

func (h *Handlers) UpdateProduct(ctx context.Context, req UpdateProduct) (result.Result[ProductResponse], error) {
	return h.modify(ctx, req.ID, req.Version, func(p *catalog.Product) error {
		if err := p.Rename(req.Name, req.Description); err != nil {
			return err
		}
		if err := p.Reprice(shared.NewMoney(req.Price, req.Currency)); err != nil {
			return err
		}
		p.MoveTo(req.CategoryID)
		return nil
	})
}

func (h *Handlers) AdjustStock(ctx context.Context, req AdjustStock) (result.Result[ProductResponse], error) {
	return h.modify(ctx, req.ID, req.Version, func(p *catalog.Product) error {
		return p.AdjustStock(req.Delta)
	})
}

// modify loads a product, checks the caller's version token, applies fn and flushes.
func (h *Handlers) modify(ctx context.Context, id string, version int64, fn func(*catalog.Product) error) (result.Result[ProductResponse], error) {
	uow := shared.UnitOfWorkOrNew(ctx, h.factory)
	repo := shared.RepositoryFor[*catalog.Product](uow)

	p, err := repo.Get(ctx, id)
	if err != nil {
		return failure[ProductResponse](err)
	}
	if p.Version != version {
		return result.Result[ProductResponse]{}, shared.NewConcurrencyConflictError("Product", id, version)
	}
	if err := fn(p); err != nil {
		return failure[ProductResponse](err)
	}
	if err := repo.Update(ctx, p); err != nil {
		return result.Result[ProductResponse]{}, err
	}
	if err := uow.SaveChanges(ctx); err != nil {
		return result.Result[ProductResponse]{}, err
	}

	h.log.Info("Product updated", zap.String("product_id", p.ID), zap.Int64("version", p.Version))
	return result.Success(toProductResponse(p)), nil
}

func (h *Handlers) DeleteProduct(ctx context.Context, req DeleteProduct) (result.Result[ProductResponse], error) {
	uow := shared.UnitOfWorkOrNew(ctx, h.factory)
	repo := shared.RepositoryFor[*catalog.Product](uow)

	p, err := repo.Get(ctx, req.ID)
	if err != nil {
		return failure[ProductResponse](err)
	}
	if p.Version != req.Version {
		return result.Result[ProductResponse]{}, shared.NewConcurrencyConflictError("Product", req.ID, req.Version)
	}
	if err := repo.Remove(ctx, p); err != nil {
		return result.Result[ProductResponse]{}, err
	}
	if err := uow.SaveChanges(ctx); err != nil {
		return result.Result[ProductResponse]{}, err
	}

	h.log.Info("Product deleted", zap.String("product_id", p.ID))
	return result.Success(toProductResponse(p)), nil
}

// ============================================================================
// Queries
// ============================================================================

func (h *Handlers) GetProduct(ctx context.Context, req GetProduct) (result.Result[ProductResponse], error) {
	p, err := shared.RepositoryFor[*catalog.Product](shared.UnitOfWorkOrNew(ctx, h.factory)).Get(ctx, req.ID)
	if err != nil {
		return failure[ProductResponse](err)
	}
	return result.Success(toProductResponse(p)), nil
}

func (h *Handlers) ListProducts(ctx context.Context, req ListProducts) (result.Result[ProductListResponse], error) {
	filter := catalog.ProductFilter{
		CategoryID: req.CategoryID,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Name:       req.Name,
		InStock:    req.InStock,
	}
	products, err := shared.RepositoryFor[*catalog.Product](shared.UnitOfWorkOrNew(ctx, h.factory)).
		Find(ctx, filter.Specification())
	if err != nil {
		return result.Result[ProductListResponse]{}, err
	}
	return result.Success(toProductListResponse(products)), nil
}

func (h *Handlers) ListCategories(ctx context.Context, _ ListCategories) (result.Result[[]CategoryResponse], error) {
	categories, err := shared.RepositoryFor[*catalog.Category](shared.UnitOfWorkOrNew(ctx, h.factory)).Find(ctx, nil)
	if err != nil {
		return result.Result[[]CategoryResponse]{}, err
	}
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	return result.Success(out), nil
}

func (h *Handlers) GetProductHistory(ctx context.Context, req GetProductHistory) (result.Result[[]HistoryEntryResponse], error) {
	uow := shared.UnitOfWorkOrNew(ctx, h.factory)
	p, err := shared.RepositoryFor[*catalog.Product](uow).GetIncludingDeleted(ctx, req.ID)
	if err != nil {
		return failure[[]HistoryEntryResponse](err)
	}
	logs, err := uow.History(ctx, shared.EntityName(p), p.ID)
	if err != nil {
		return result.Result[[]HistoryEntryResponse]{}, err
	}
	return result.Success(toHistoryResponse(logs)), nil
}

// failure turns expected business outcomes into a Result and passes
// everything else through as an error. Only for checks made before a flush:
// a failed SaveChanges leaves the tracker dirty and must surface as an error.
func failure[T any](err error) (result.Result[T], error) {
	var domainErr *shared.DomainError
	switch {
	case errors.Is(err, shared.ErrInvalidInput) && errors.As(err, &domainErr) && domainErr.Field != "":
		return result.ValidationFailure[T](result.NewFieldErrors(result.FieldError{
			Field:   domainErr.Field,
			Message: domainErr.Message,
		})), nil
	case errors.Is(err, shared.ErrNotFound):
		return result.Failure[T](err.Error()), nil
	case errors.Is(err, catalog.ErrInsufficientStock):
		return result.Failure[T](err.Error()), nil
	default:
		return result.Result[T]{}, err
	}
}
