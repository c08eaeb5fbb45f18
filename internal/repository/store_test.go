package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/catalogbot/internal/domain"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	return NewSQLStore(newTestDB(t))
}

func TestSQLStoreProducts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	id1, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Widget", Price: "9.99", Stock: "42", Description: "A small widget"})
	require.NoError(t, err)
	id2, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Gadget", Price: "10.00", Stock: "3"})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	products, err = store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.Product{ID: id1, Name: "Widget", Price: "9.99", Stock: "42", Description: "A small widget"}, products[0])
	assert.Equal(t, "10.00", products[1].Price)

	exists, err := store.ProductExists(ctx, id1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ProductExists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetProduct(ctx, 999)
	assert.True(t, domain.IsNotFound(err))

	got, err := store.GetProduct(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Name)
}

func TestSQLStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.DB().Seed(ctx, SeedOptions{Attributes: []string{"Size", "Color"}}))
	pid, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Widget", Price: "1", Stock: "1"})
	require.NoError(t, err)

	require.NoError(t, store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: pid, AttributeID: 2, Value: "red"}))
	require.NoError(t, store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: pid, AttributeID: 2, Value: "blue"}))

	attrs, err := store.ListProductAttributes(ctx, pid)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, domain.ProductAttribute{ProductID: pid, AttributeID: 2, Value: "blue"}, attrs[0])
}

func TestSQLStoreUpsertUnknownAttributeFails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pid, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Widget", Price: "1", Stock: "1"})
	require.NoError(t, err)

	err = store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: pid, AttributeID: 77, Value: "x"})
	assert.ErrorIs(t, err, domain.ErrDataAccess)
}

func TestSQLStoreAttributeValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.DB().Seed(ctx, SeedOptions{Attributes: []string{"Color", "Size", "Material"}}))
	pid, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Widget", Price: "1", Stock: "1"})
	require.NoError(t, err)
	other, err := store.CreateProduct(ctx, domain.ProductDraft{Name: "Other", Price: "1", Stock: "1"})
	require.NoError(t, err)

	require.NoError(t, store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: pid, AttributeID: 2, Value: "XL"}))
	require.NoError(t, store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: other, AttributeID: 1, Value: "green"}))

	values, err := store.ListAttributeValues(ctx, pid)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, "Color", values[0].Name)
	assert.Nil(t, values[0].Value)
	require.NotNil(t, values[1].Value)
	assert.Equal(t, "XL", *values[1].Value)
	assert.Nil(t, values[2].Value)
}

func TestSQLStoreAttributeValuesEmpty(t *testing.T) {
	store := newTestStore(t)

	values, err := store.ListAttributeValues(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSQLStoreFindCredentials(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.DB().Seed(ctx, SeedOptions{AdminUsername: "alice", AdminPassword: "secret"}))
	_, err := store.DB().Execute(ctx, `INSERT INTO customers (username, password, role) VALUES (?, ?, ?)`,
		[]any{"bob", "hunter2", "customer"}, ModeWrite)
	require.NoError(t, err)

	creds, err := store.FindCredentials(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "secret", creds[0].Password)
	assert.Equal(t, "admin", creds[0].Role)

	creds, err = store.FindCredentials(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestSQLStoreClosedReturnsDataAccessError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.ListProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataAccess)
}

func TestSQLStoreConcurrentWritesOnFileDatabase(t *testing.T) {
	for name, query := range map[string]string{
		"private cache": "?mode=rwc",
		"shared cache":  "?cache=shared&mode=rwc",
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dsn := "file:" + filepath.Join(t.TempDir(), "catalogbot.db") + query
			db, err := Open(dsn, PoolOptions{MaxOpenConns: 10, MaxIdleConns: 2})
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			require.NoError(t, db.Migrate(ctx))
			require.NoError(t, db.Seed(ctx, SeedOptions{Attributes: []string{"Color"}}))
			store := NewSQLStore(db)

			const writers = 40
			errs := make(chan error, writers*2)
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, err := store.CreateProduct(ctx, domain.ProductDraft{Name: fmt.Sprintf("Product %d", i), Price: "1", Stock: "1"})
					if err != nil {
						errs <- err
						return
					}
					errs <- store.UpsertProductAttribute(ctx, domain.ProductAttribute{ProductID: id, AttributeID: 1, Value: "red"})
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				assert.NoError(t, err)
			}
			products, err := store.ListProducts(ctx)
			require.NoError(t, err)
			assert.Len(t, products, writers)
		})
	}
}
