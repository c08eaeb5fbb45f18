package repository

import (
	"context"

	"github.com/juju/errors"
)

// Migrate creates the catalog schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, m := range d.migrations() {
		if _, err := d.db.ExecContext(ctx, m); err != nil {
			return errors.Annotatef(err, "migration failed\n%s", m)
		}
	}
	return nil
}

func (d *DB) migrations() []string {
	if d.dialect.name == dialectPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS customers (
				id SERIAL PRIMARY KEY,
				username TEXT NOT NULL,
				password TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'customer'
			)`,
			`CREATE INDEX IF NOT EXISTS idx_customers_username ON customers(username)`,
			`CREATE TABLE IF NOT EXISTS products (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				price NUMERIC(12, 2) NOT NULL DEFAULT 0,
				stock INTEGER NOT NULL DEFAULT 0,
				description TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS attributes (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS product_attributes (
				product_id INTEGER NOT NULL REFERENCES products(id),
				attribute_id INTEGER NOT NULL REFERENCES attributes(id),
				value TEXT,
				UNIQUE (product_id, attribute_id)
			)`,
		}
	}

	// SQLite keeps price and stock as the text the operator typed.
	return []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'customer'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_username ON customers(username)`,
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price TEXT NOT NULL DEFAULT '0',
			stock TEXT NOT NULL DEFAULT '0',
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS attributes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS product_attributes (
			product_id INTEGER NOT NULL,
			attribute_id INTEGER NOT NULL,
			value TEXT,
			UNIQUE (product_id, attribute_id),
			FOREIGN KEY (product_id) REFERENCES products(id),
			FOREIGN KEY (attribute_id) REFERENCES attributes(id)
		)`,
	}
}

// SeedOptions describes bootstrap rows for local runs.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
	AdminRole     string
	Attributes    []string
}

// Seed inserts the admin credential and attribute names that do not exist yet.
func (d *DB) Seed(ctx context.Context, opts SeedOptions) error {
	if opts.AdminUsername != "" && opts.AdminPassword != "" {
		role := opts.AdminRole
		if role == "" {
			role = "admin"
		}
		res, err := d.Execute(ctx, `SELECT id FROM customers WHERE username = ? AND role = ?`,
			[]any{opts.AdminUsername, role}, ModeFetchOne)
		if err != nil {
			return errors.Annotate(err, "failed to look up seed admin")
		}
		if _, ok := res.First(); !ok {
			if _, err := d.Execute(ctx, `INSERT INTO customers (username, password, role) VALUES (?, ?, ?)`,
				[]any{opts.AdminUsername, opts.AdminPassword, role}, ModeWrite); err != nil {
				return errors.Annotate(err, "failed to seed admin")
			}
			logger.Infof("seeded admin credential %q", opts.AdminUsername)
		}
	}

	for _, name := range opts.Attributes {
		res, err := d.Execute(ctx, `SELECT id FROM attributes WHERE name = ?`, []any{name}, ModeFetchOne)
		if err != nil {
			return errors.Annotatef(err, "failed to look up attribute %q", name)
		}
		if _, ok := res.First(); ok {
			continue
		}
		if _, err := d.Execute(ctx, `INSERT INTO attributes (name) VALUES (?)`, []any{name}, ModeWrite); err != nil {
			return errors.Annotatef(err, "failed to seed attribute %q", name)
		}
	}
	return nil
}
