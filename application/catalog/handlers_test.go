package catalog_test

import (
	"context"
	"testing"

	"catalog/application/behavior"
	"catalog/application/catalog"
	"catalog/application/mediator"
	"catalog/application/validation"
	"catalog/domain/shared"
	"catalog/infrastructure/persistence"
	"catalog/infrastructure/persistence/audit"
	"catalog/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMediator(t *testing.T) (*mediator.Mediator, *memory.DB) {
	t.Helper()
	log := zaptest.NewLogger(t)
	db := memory.New()
	factory := persistence.NewUnitOfWorkFactory(db, log, audit.NewInterceptor())

	handlers := catalog.NewHandlers(factory, log)
	m, err := mediator.New(handlers.Registrations(),
		mediator.WithLogger(log),
		mediator.WithBehaviors(behavior.Pipeline(
			validation.NewBehavior(catalog.Validators(factory), validation.WithLogger(log)),
			behavior.NewPerformance(log),
			behavior.NewTransaction(factory, log, nil),
		)...))
	require.NoError(t, err)
	require.NoError(t, m.Require(catalog.Requests()...))
	return m, db
}

func asAlice() context.Context {
	return shared.WithActor(context.Background(), shared.Actor{ID: "alice", Address: "10.0.0.7"})
}

func createProduct(t *testing.T, m *mediator.Mediator, req catalog.CreateProduct) catalog.ProductResponse {
	t.Helper()
	res, err := mediator.Send[catalog.ProductResponse](asAlice(), m, req)
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.ErrorMessage())
	return res.Data()
}

func TestCreateProduct(t *testing.T) {
	m, db := newMediator(t)
	ctx := asAlice()

	cat, err := mediator.Send[catalog.CategoryResponse](ctx, m, catalog.CreateCategory{Name: "Kitchen"})
	require.NoError(t, err)
	require.True(t, cat.IsSuccess())

	p := createProduct(t, m, catalog.CreateProduct{
		Name: "Kettle", SKU: "ket-1", Price: 2999, Currency: "eur", Stock: 4, CategoryID: cat.Data().ID,
	})
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "KET-1", p.SKU)
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, "alice", p.Audit.CreatedBy)
	assert.Equal(t, "EUR", p.Price.Currency)

	got, err := mediator.Send[catalog.ProductResponse](ctx, m, catalog.GetProduct{ID: p.ID})
	require.NoError(t, err)
	require.True(t, got.IsSuccess())
	assert.Equal(t, "Kettle", got.Data().Name)

	stats := db.Stats()
	assert.Equal(t, int64(2), stats.Begins, "queries never open a transaction")
	assert.Equal(t, int64(2), stats.Commits)
}

func TestCreateProductValidation(t *testing.T) {
	m, db := newMediator(t)
	createProduct(t, m, catalog.CreateProduct{Name: "Mug", SKU: "MUG", Price: 500, Currency: "EUR"})
	before := db.Stats()

	res, err := mediator.Send[catalog.ProductResponse](asAlice(), m, catalog.CreateProduct{
		Name: "Other mug", SKU: " mug ", Price: 0, Currency: "EUR",
		CategoryID: "0b7e1a4e-5d9c-4f0e-9a57-0d1f2f3c4b5a",
	})
	require.NoError(t, err)
	require.True(t, res.IsValidationFailure())
	fields := res.ValidationErrors()
	assert.ElementsMatch(t, []string{"Price", "SKU", "CategoryID"}, fields.Fields())
	assert.Equal(t, []string{"sku already in use"}, fields.Get("SKU"))

	assert.Equal(t, before, db.Stats(), "validation failures never reach the transaction")
}

func TestUpdateProduct(t *testing.T) {
	m, _ := newMediator(t)
	ctx := asAlice()
	p := createProduct(t, m, catalog.CreateProduct{Name: "Lamp", SKU: "L-1", Price: 1500, Currency: "USD", Stock: 2})

	res, err := mediator.Send[catalog.ProductResponse](ctx, m, catalog.UpdateProduct{
		ID: p.ID, Version: p.Version, Name: "Desk lamp", Price: 1500, Currency: "USD",
	})
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.ErrorMessage())
	updated := res.Data()
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, p.Audit.CreatedAt, updated.Audit.CreatedAt)
	require.NotNil(t, updated.Audit.UpdatedBy)
	assert.Equal(t, "alice", *updated.Audit.UpdatedBy)

	history, err := mediator.Send[[]catalog.HistoryEntryResponse](ctx, m, catalog.GetProductHistory{ID: p.ID})
	require.NoError(t, err)
	require.Len(t, history.Data(), 2)
	assert.Equal(t, "Create", history.Data()[0].Action)
	assert.Equal(t, "Update", history.Data()[1].Action)
	assert.Equal(t, []string{"name"}, history.Data()[1].ChangedFields)
	assert.Equal(t, "10.0.0.7", history.Data()[1].Address)
}

func TestUpdateProductWithStaleVersionRollsBack(t *testing.T) {
	m, db := newMediator(t)
	p := createProduct(t, m, catalog.CreateProduct{Name: "Chair", SKU: "C-1", Price: 4000, Currency: "EUR"})
	before := db.Stats()

	_, err := mediator.Send[catalog.ProductResponse](asAlice(), m, catalog.UpdateProduct{
		ID: p.ID, Version: p.Version + 1, Name: "Armchair", Price: 4000, Currency: "EUR",
	})
	require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	after := db.Stats()
	assert.Equal(t, before.Rollbacks+1, after.Rollbacks)
	assert.Equal(t, before.Commits, after.Commits)
}

func TestAdjustStock(t *testing.T) {
	m, _ := newMediator(t)
	ctx := asAlice()
	p := createProduct(t, m, catalog.CreateProduct{Name: "Pen", SKU: "PEN", Price: 100, Currency: "EUR", Stock: 1})

	res, err := mediator.Send[catalog.ProductResponse](ctx, m, catalog.AdjustStock{ID: p.ID, Version: 1, Delta: -2})
	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.Equal(t, "insufficient stock", res.ErrorMessage())

	res, err = mediator.Send[catalog.ProductResponse](ctx, m, catalog.AdjustStock{ID: p.ID, Version: 1, Delta: 5})
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 6, res.Data().Stock)
}

func TestDeleteProduct(t *testing.T) {
	m, db := newMediator(t)
	ctx := asAlice()
	p := createProduct(t, m, catalog.CreateProduct{Name: "Vase", SKU: "V-1", Price: 900, Currency: "EUR"})

	res, err := mediator.Send[catalog.ProductResponse](ctx, m, catalog.DeleteProduct{ID: p.ID, Version: p.Version})
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.True(t, res.Data().Audit.IsDeleted)

	got, err := mediator.Send[catalog.ProductResponse](ctx, m, catalog.GetProduct{ID: p.ID})
	require.NoError(t, err)
	assert.True(t, got.IsFailure())
	assert.Equal(t, "Product not found", got.ErrorMessage())

	list, err := mediator.Send[catalog.ProductListResponse](ctx, m, catalog.ListProducts{})
	require.NoError(t, err)
	assert.Zero(t, list.Data().Total)

	history, err := mediator.Send[[]catalog.HistoryEntryResponse](ctx, m, catalog.GetProductHistory{ID: p.ID})
	require.NoError(t, err)
	require.Len(t, history.Data(), 2)
	assert.Equal(t, "Delete", history.Data()[1].Action)

	assert.Len(t, db.AuditLogs(), 2)
}

func TestListProducts(t *testing.T) {
	m, _ := newMediator(t)
	ctx := asAlice()
	createProduct(t, m, catalog.CreateProduct{Name: "Teaspoon", SKU: "S-1", Price: 150, Currency: "EUR", Stock: 10})
	createProduct(t, m, catalog.CreateProduct{Name: "Silver spoon", SKU: "S-2", Price: 9000, Currency: "EUR"})
	createProduct(t, m, catalog.CreateProduct{Name: "Fork", SKU: "F-1", Price: 200, Currency: "EUR", Stock: 3})

	res, err := mediator.Send[catalog.ProductListResponse](ctx, m, catalog.ListProducts{Name: "spoon"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Data().Total)

	res, err = mediator.Send[catalog.ProductListResponse](ctx, m, catalog.ListProducts{MaxPrice: 1000, InStock: true})
	require.NoError(t, err)
	require.Equal(t, 2, res.Data().Total)
	assert.Equal(t, "Teaspoon", res.Data().Items[0].Name)

	res, err = mediator.Send[catalog.ProductListResponse](ctx, m, catalog.ListProducts{MinPrice: 500, MaxPrice: 100})
	require.NoError(t, err)
	require.True(t, res.IsValidationFailure())
	assert.Equal(t, []string{"MaxPrice"}, res.ValidationErrors().Fields())
}

func TestHistoryOfUnknownProduct(t *testing.T) {
	m, _ := newMediator(t)
	res, err := mediator.Send[[]catalog.HistoryEntryResponse](context.Background(), m, catalog.GetProductHistory{ID: "missing"})
	require.NoError(t, err)
	assert.True(t, res.IsFailure())
	assert.False(t, res.IsValidationFailure())
}

// interleavedFactory runs beforeSave once, just before the first SaveChanges
// of any unit of work it hands out.
type interleavedFactory struct {
	shared.UnitOfWorkFactory
	beforeSave func()
}

func (f *interleavedFactory) New() shared.UnitOfWork {
	return &interleavedUnitOfWork{UnitOfWork: f.UnitOfWorkFactory.New(), factory: f}
}

type interleavedUnitOfWork struct {
	shared.UnitOfWork
	factory *interleavedFactory
}

func (u *interleavedUnitOfWork) SaveChanges(ctx context.Context) error {
	if hook := u.factory.beforeSave; hook != nil {
		u.factory.beforeSave = nil
		hook()
	}
	return u.UnitOfWork.SaveChanges(ctx)
}

func TestFlushAfterConcurrentDeleteIsAnError(t *testing.T) {
	cases := []struct {
		name string
		send func(h *catalog.Handlers, p catalog.ProductResponse) (string, error)
	}{
		{"update", func(h *catalog.Handlers, p catalog.ProductResponse) (string, error) {
			res, err := h.UpdateProduct(asAlice(), catalog.UpdateProduct{
				ID: p.ID, Version: p.Version, Name: "Renamed", Price: 100, Currency: "EUR",
			})
			return res.ErrorMessage(), err
		}},
		{"adjust stock", func(h *catalog.Handlers, p catalog.ProductResponse) (string, error) {
			res, err := h.AdjustStock(asAlice(), catalog.AdjustStock{ID: p.ID, Version: p.Version, Delta: 1})
			return res.ErrorMessage(), err
		}},
		{"delete", func(h *catalog.Handlers, p catalog.ProductResponse) (string, error) {
			res, err := h.DeleteProduct(asAlice(), catalog.DeleteProduct{ID: p.ID, Version: p.Version})
			return res.ErrorMessage(), err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, db := newMediator(t)
			p := createProduct(t, m, catalog.CreateProduct{Name: "Bowl", SKU: "B-1", Price: 100, Currency: "EUR", Stock: 3})

			log := zaptest.NewLogger(t)
			factory := &interleavedFactory{
				UnitOfWorkFactory: persistence.NewUnitOfWorkFactory(db, log, audit.NewInterceptor()),
				beforeSave: func() {
					res, err := mediator.Send[catalog.ProductResponse](asAlice(), m, catalog.DeleteProduct{ID: p.ID, Version: p.Version})
					require.NoError(t, err)
					require.True(t, res.IsSuccess(), res.ErrorMessage())
				},
			}
			handlers := catalog.NewHandlers(factory, log)

			message, err := tc.send(handlers, p)
			require.ErrorIs(t, err, shared.ErrNotFound)
			assert.Empty(t, message, "flush errors are not business failures")
			assert.Len(t, db.AuditLogs(), 2, "only the create and the concurrent delete are recorded")
		})
	}
}
