package repository

import (
	"context"

	"github.com/juju/errors"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// Store defines the catalog persistence used by the console.
type Store interface {
	// Credential operations
	FindCredentials(ctx context.Context, username string) ([]domain.Credential, error)

	// Product operations
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
	CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error)

	// Attribute operations
	ListAttributeValues(ctx context.Context, productID int64) ([]domain.AttributeValue, error)
	ListProductAttributes(ctx context.Context, productID int64) ([]domain.ProductAttribute, error)
	UpsertProductAttribute(ctx context.Context, pa domain.ProductAttribute) error

	// Lifecycle
	Close() error
}

// SQLStore implements Store on top of DB.Execute.
type SQLStore struct {
	db *DB
}

// NewSQLStore wraps an open DB.
func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

// DB returns the underlying executor.
func (s *SQLStore) DB() *DB {
	return s.db
}

// Close closes the underlying pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// FindCredentials returns every customer record with the given username.
func (s *SQLStore) FindCredentials(ctx context.Context, username string) ([]domain.Credential, error) {
	res, err := s.db.Execute(ctx,
		`SELECT id, username, password, role FROM customers WHERE username = ?`,
		[]any{username}, ModeFetchAll)
	if err != nil {
		return nil, err
	}

	creds := make([]domain.Credential, 0, len(res.Rows))
	for _, row := range res.Rows {
		id, err := row.Int64(0)
		if err != nil {
			return nil, errors.Trace(err)
		}
		creds = append(creds, domain.Credential{
			ID:       id,
			Username: row.String(1),
			Password: row.String(2),
			Role:     row.String(3),
		})
	}
	return creds, nil
}

// ListProducts returns all products ordered by ascending id.
func (s *SQLStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	res, err := s.db.Execute(ctx,
		`SELECT id, name, price, stock, description FROM products ORDER BY id ASC`,
		nil, ModeFetchAll)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(res.Rows))
	for _, row := range res.Rows {
		p, err := productFromRow(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct returns a single product or a NotFound error.
func (s *SQLStore) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	res, err := s.db.Execute(ctx,
		`SELECT id, name, price, stock, description FROM products WHERE id = ?`,
		[]any{productID}, ModeFetchOne)
	if err != nil {
		return nil, err
	}
	row, ok := res.First()
	if !ok {
		return nil, errors.NotFoundf("product %d", productID)
	}
	p, err := productFromRow(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductExists reports whether a product with the id exists.
func (s *SQLStore) ProductExists(ctx context.Context, productID int64) (bool, error) {
	res, err := s.db.Execute(ctx, `SELECT id FROM products WHERE id = ?`, []any{productID}, ModeFetchOne)
	if err != nil {
		return false, err
	}
	_, ok := res.First()
	return ok, nil
}

// CreateProduct inserts a product and returns its generated id.
func (s *SQLStore) CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error) {
	res, err := s.db.Execute(ctx,
		`INSERT INTO products (name, description, price, stock) VALUES (?, ?, ?, ?) RETURNING id`,
		[]any{draft.Name, draft.Description, draft.Price, draft.Stock}, ModeFetchOne)
	if err != nil {
		return 0, err
	}
	row, ok := res.First()
	if !ok {
		return 0, domain.ErrDataAccess
	}
	return row.Int64(0)
}

// ListAttributeValues returns every attribute with the product's current
// value (nil when unset), ordered by attribute id.
func (s *SQLStore) ListAttributeValues(ctx context.Context, productID int64) ([]domain.AttributeValue, error) {
	res, err := s.db.Execute(ctx, `
		SELECT a.id, a.name, pa.value
		FROM attributes a
		LEFT JOIN product_attributes pa
		ON a.id = pa.attribute_id AND pa.product_id = ?
		ORDER BY a.id ASC`,
		[]any{productID}, ModeFetchAll)
	if err != nil {
		return nil, err
	}

	values := make([]domain.AttributeValue, 0, len(res.Rows))
	for _, row := range res.Rows {
		id, err := row.Int64(0)
		if err != nil {
			return nil, errors.Trace(err)
		}
		values = append(values, domain.AttributeValue{
			AttributeID: id,
			Name:        row.String(1),
			Value:       row.NullString(2),
		})
	}
	return values, nil
}

// ListProductAttributes returns the stored attribute values of a product.
func (s *SQLStore) ListProductAttributes(ctx context.Context, productID int64) ([]domain.ProductAttribute, error) {
	res, err := s.db.Execute(ctx,
		`SELECT product_id, attribute_id, value FROM product_attributes WHERE product_id = ? ORDER BY attribute_id ASC`,
		[]any{productID}, ModeFetchAll)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProductAttribute, 0, len(res.Rows))
	for _, row := range res.Rows {
		pid, err := row.Int64(0)
		if err != nil {
			return nil, errors.Trace(err)
		}
		aid, err := row.Int64(1)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out = append(out, domain.ProductAttribute{ProductID: pid, AttributeID: aid, Value: row.String(2)})
	}
	return out, nil
}

// UpsertProductAttribute inserts the value or replaces the existing one for
// the (product, attribute) pair.
func (s *SQLStore) UpsertProductAttribute(ctx context.Context, pa domain.ProductAttribute) error {
	_, err := s.db.Execute(ctx, `
		INSERT INTO product_attributes (product_id, attribute_id, value)
		VALUES (?, ?, ?)
		ON CONFLICT (product_id, attribute_id)
		DO UPDATE SET value = EXCLUDED.value`,
		[]any{pa.ProductID, pa.AttributeID, pa.Value}, ModeWrite)
	return err
}

func productFromRow(row Row) (domain.Product, error) {
	id, err := row.Int64(0)
	if err != nil {
		return domain.Product{}, errors.Trace(err)
	}
	return domain.Product{
		ID:          id,
		Name:        row.String(1),
		Price:       row.String(2),
		Stock:       row.String(3),
		Description: row.String(4),
	}, nil
}
