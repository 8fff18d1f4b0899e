package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/frumelad/bom-explode/internal/bom"
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ReplaceResults swaps the stored results for the given ones in a single
// transaction. Readers see either the previous run or the new one.
func (s *Store) ReplaceResults(ctx context.Context, results []*bom.Result, calculatedAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE bom_expanded, bom_errors RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate bom results: %w", err)
	}
	for _, res := range results {
		if err := saveResult(ctx, tx, res, calculatedAt); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func saveResult(ctx context.Context, tx pgx.Tx, res *bom.Result, calculatedAt time.Time) error {
	rows := res.Rows()
	if len(rows) == 0 && len(res.Errors) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		var kg *string
		if r.KG.Valid {
			v := r.KG.Decimal.String()
			kg = &v
		}
		batch.Queue(`
INSERT INTO bom_expanded
    (product_key, product_name, material_key, material_name, material_unit,
     quantity_per_unit, quantity_kg, type_id, type_name,
     type_level_1, type_level_2, type_level_3, calculated_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13)`,
			r.ProductKey, r.ProductName, r.MaterialKey, r.MaterialName, r.Unit,
			r.Quantity.String(), kg, nullable(r.TypeID), nullable(r.TypeName),
			nullable(r.Level1), nullable(r.Level2), nullable(r.Level3), calculatedAt)
	}
	for _, e := range res.Errors {
		batch.Queue(`
INSERT INTO bom_errors
    (product_key, product_name, semifinished_key, semifinished_name, error_type, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ProductKey, e.ProductName, e.ItemKey, e.ItemName, string(e.Kind), e.Detail, calculatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert bom result for %s: %w", res.ProductKey, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

// RecordCalculation appends a run summary.
func (s *Store) RecordCalculation(ctx context.Context, c bom.Calculation) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO bom_calculations (started_at, finished_at, products_processed, materials_total, errors_total, status)
VALUES ($1, $2, $3, $4, $5, $6)`,
		c.StartedAt, c.FinishedAt, c.Products, c.Materials, c.Errors, c.Status)
	if err != nil {
		return fmt.Errorf("insert bom calculation: %w", err)
	}
	return nil
}

// LastCalculation returns the most recent run summary.
func (s *Store) LastCalculation(ctx context.Context) (bom.Calculation, error) {
	var c bom.Calculation
	err := s.pool.QueryRow(ctx, `
SELECT id, started_at, finished_at, products_processed, materials_total, errors_total, status
FROM bom_calculations
ORDER BY id DESC
LIMIT 1`).Scan(&c.ID, &c.StartedAt, &c.FinishedAt, &c.Products, &c.Materials, &c.Errors, &c.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return bom.Calculation{}, ErrNoData
	}
	if err != nil {
		return bom.Calculation{}, fmt.Errorf("query bom calculation: %w", err)
	}
	return c, nil
}

const rowColumns = `product_key, COALESCE(product_name, ''), material_key, COALESCE(material_name, ''),
       COALESCE(material_unit, ''), quantity_per_unit::text, quantity_kg::text,
       COALESCE(type_id, ''), COALESCE(type_name, ''),
       COALESCE(type_level_1, ''), COALESCE(type_level_2, ''), COALESCE(type_level_3, '')`

func (s *Store) queryRows(ctx context.Context, sql string, args ...any) ([]bom.Row, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bom_expanded: %w", err)
	}
	defer rows.Close()

	var out []bom.Row
	for rows.Next() {
		var (
			r   bom.Row
			qty string
			kg  *string
		)
		if err := rows.Scan(&r.ProductKey, &r.ProductName, &r.MaterialKey, &r.MaterialName, &r.Unit,
			&qty, &kg, &r.TypeID, &r.TypeName, &r.Level1, &r.Level2, &r.Level3); err != nil {
			return nil, fmt.Errorf("scan bom row: %w", err)
		}
		if r.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if kg != nil {
			v, err := decimal.NewFromString(*kg)
			if err != nil {
				return nil, fmt.Errorf("parse kg: %w", err)
			}
			r.KG = decimal.NewNullDecimal(v)
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (s *Store) queryErrors(ctx context.Context, sql string, args ...any) ([]bom.Error, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bom_errors: %w", err)
	}
	defer rows.Close()

	var out []bom.Error
	for rows.Next() {
		var (
			e    bom.Error
			kind string
		)
		if err := rows.Scan(&e.ProductKey, &e.ProductName, &e.ItemKey, &e.ItemName, &kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan bom error: %w", err)
		}
		e.Kind = bom.ErrorKind(kind)
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

const errorColumns = `product_key, COALESCE(product_name, ''), COALESCE(semifinished_key, ''),
       COALESCE(semifinished_name, ''), error_type, COALESCE(details, '')`

// ProductRows returns the stored rows of one product or ErrNoData.
func (s *Store) ProductRows(ctx context.Context, productKey string) ([]bom.Row, error) {
	rows, err := s.queryRows(ctx, `SELECT `+rowColumns+` FROM bom_expanded WHERE product_key = $1 ORDER BY id`, productKey)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

// ProductErrors returns the stored errors of one product.
func (s *Store) ProductErrors(ctx context.Context, productKey string) ([]bom.Error, error) {
	return s.queryErrors(ctx, `SELECT `+errorColumns+` FROM bom_errors WHERE product_key = $1 ORDER BY id`, productKey)
}

func (s *Store) AllRows(ctx context.Context) ([]bom.Row, error) {
	return s.queryRows(ctx, `SELECT `+rowColumns+` FROM bom_expanded ORDER BY id`)
}

func (s *Store) AllErrors(ctx context.Context) ([]bom.Error, error) {
	return s.queryErrors(ctx, `SELECT `+errorColumns+` FROM bom_errors ORDER BY id`)
}
