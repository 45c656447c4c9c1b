// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrConflict     = errors.New("record conflicts with an existing row")
	ErrNoFilter     = errors.New("refusing to modify rows without a filter")
	ErrInvalidQuery = errors.New("invalid query")
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Filter is an equality condition on a single column.
type Filter struct {
	Column string
	Value  any
}

// Eq returns a filter matching rows where column equals value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Query describes a table-scoped read.
type Query struct {
	Filters []Filter
	// SinceColumn and Since select rows whose time column is at or after Since.
	SinceColumn string
	Since       time.Time
	// OrderBy columns are applied in order, all descending when Desc is set.
	OrderBy []string
	Desc    bool
	Limit   int
	// Columns restricts the projection. Empty selects every column.
	Columns []string
}

func (q Query) validate() error {
	cols := slices.Concat(q.OrderBy, q.Columns)
	for _, f := range q.Filters {
		cols = append(cols, f.Column)
	}
	if q.SinceColumn != "" {
		cols = append(cols, q.SinceColumn)
	}
	for _, c := range cols {
		if !identRegex.MatchString(c) {
			return fmt.Errorf("%w: column %q", ErrInvalidQuery, c)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Client is a table-scoped CRUD client. Create one per process with
// NewClient and pass it to the services that need it.
type Client struct {
	db     *bun.DB
	driver string
}

// NewClient wraps an open database for driver.
func NewClient(sqldb *sql.DB, driver string) *Client {
	var db *bun.DB
	if driver == DriverPostgres {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}
	return &Client{db: db, driver: driver}
}

// Driver returns the driver name the client was created for.
func (c *Client) Driver() string {
	return c.driver
}

// DB returns the underlying database handle.
func (c *Client) DB() *sql.DB {
	return c.db.DB
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying database.
func (c *Client) Close() error {
	return c.db.Close()
}

func applyFilters[Q interface {
	Where(string, ...any) Q
}](q Q, filters []Filter) Q {
	for _, f := range filters {
		q = q.Where("? = ?", bun.Ident(f.Column), f.Value)
	}
	return q
}

func (c *Client) selectQuery(model any, q Query) *bun.SelectQuery {
	sq := c.db.NewSelect().Model(model)
	if len(q.Columns) > 0 {
		sq = sq.Column(q.Columns...)
	}
	sq = applyFilters(sq, q.Filters)
	if q.SinceColumn != "" && !q.Since.IsZero() {
		sq = sq.Where("? >= ?", bun.Ident(q.SinceColumn), q.Since.UTC())
	}
	return sq
}

// Select scans every row matching q into dest, a pointer to a slice of models.
func (c *Client) Select(ctx context.Context, dest any, q Query) error {
	if err := q.validate(); err != nil {
		return err
	}

	sq := c.selectQuery(dest, q)
	for _, col := range q.OrderBy {
		if q.Desc {
			sq = sq.OrderExpr("? DESC", bun.Ident(col))
		} else {
			sq = sq.OrderExpr("? ASC", bun.Ident(col))
		}
	}
	if q.Limit > 0 {
		sq = sq.Limit(q.Limit)
	}

	if err := sq.Scan(ctx); err != nil {
		return fmt.Errorf("selecting rows: %w", err)
	}
	return nil
}

// SelectOne scans the first row matching q into dest, a pointer to a model.
// It returns ErrNotFound when nothing matches.
func (c *Client) SelectOne(ctx context.Context, dest any, q Query) error {
	q.Limit = 1
	err := c.Select(ctx, dest, q)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Count returns the number of rows of model's table matching q.
// Ordering, limits and projections in q are ignored.
func (c *Client) Count(ctx context.Context, model any, q Query) (int, error) {
	q.OrderBy, q.Columns, q.Limit = nil, nil, 0
	if err := q.validate(); err != nil {
		return 0, err
	}

	n, err := c.selectQuery(model, q).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

// Insert inserts model and scans the stored row back into it.
// Unique constraint violations are reported as ErrConflict.
func (c *Client) Insert(ctx context.Context, model any) error {
	_, err := c.db.NewInsert().Model(model).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("inserting row: %w", err)
	}
	return nil
}

// Update sets values on every row of table matching filters and returns
// the number of rows affected. At least one filter is required.
func (c *Client) Update(ctx context.Context, table string, values map[string]any, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrNoFilter
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no values to update", ErrInvalidQuery)
	}
	cols := make([]string, 0, len(values)+1)
	for col := range values {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	if err := (Query{Filters: filters, Columns: append(cols, table)}).validate(); err != nil {
		return 0, err
	}

	uq := c.db.NewUpdate().Table(table)
	for _, col := range cols {
		uq = uq.Set("? = ?", bun.Ident(col), values[col])
	}
	uq = applyFilters(uq, filters)

	res, err := uq.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return 0, fmt.Errorf("updating %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Delete removes every row of model's table matching filters and returns
// the number of rows affected. At least one filter is required.
func (c *Client) Delete(ctx context.Context, model any, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrNoFilter
	}
	if err := (Query{Filters: filters}).validate(); err != nil {
		return 0, err
	}

	res, err := applyFilters(c.db.NewDelete().Model(model), filters).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting rows: %w", err)
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// mattn/go-sqlite3 in tests
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
