package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/frumelad/bom-explode/internal/catalog"
)

// LoadCatalog reads the full catalog in one pass. Rows without an explicit
// order column keep their physical order so selection is stable between runs.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	snap := &catalog.Snapshot{}
	var err error
	if snap.Types, err = s.loadTypes(ctx); err != nil {
		return nil, err
	}
	if snap.Items, err = s.loadItems(ctx); err != nil {
		return nil, err
	}
	if snap.Specs, err = s.loadSpecs(ctx); err != nil {
		return nil, err
	}
	if snap.Lines, err = s.loadLines(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadTypes(ctx context.Context) ([]catalog.NomenclatureType, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, COALESCE(name, ''), COALESCE(parent_id::text, ''), COALESCE(is_folder, FALSE)
FROM nomenclature_types
ORDER BY ctid`)
	if err != nil {
		return nil, fmt.Errorf("query nomenclature_types: %w", err)
	}
	defer rows.Close()

	var out []catalog.NomenclatureType
	for rows.Next() {
		var t catalog.NomenclatureType
		if err := rows.Scan(&t.ID, &t.Name, &t.ParentID, &t.IsFolder); err != nil {
			return nil, fmt.Errorf("scan nomenclature type: %w", err)
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (s *Store) loadItems(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, COALESCE(name, ''), COALESCE(unit, ''), COALESCE(unit_name, ''), COALESCE(type_id::text, '')
FROM nomenclature
ORDER BY ctid`)
	if err != nil {
		return nil, fmt.Errorf("query nomenclature: %w", err)
	}
	defer rows.Close()

	var out []catalog.Item
	for rows.Next() {
		var it catalog.Item
		if err := rows.Scan(&it.Key, &it.Name, &it.UnitCode, &it.UnitName, &it.TypeID); err != nil {
			return nil, fmt.Errorf("scan nomenclature: %w", err)
		}
		out = append(out, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (s *Store) loadSpecs(ctx context.Context) ([]catalog.Specification, error) {
	rows, err := s.pool.Query(ctx, `
SELECT ref_key::text, COALESCE(name, ''), product_key::text,
       COALESCE(product_quantity, 0)::text, COALESCE(auto_select = $2, FALSE)
FROM c1_specifications
WHERE status = $1 AND product_key IS NOT NULL
ORDER BY ctid`, s.opts.ActiveStatus, s.opts.AutoSelect)
	if err != nil {
		return nil, fmt.Errorf("query c1_specifications: %w", err)
	}
	defer rows.Close()

	var out []catalog.Specification
	for rows.Next() {
		var (
			sp  catalog.Specification
			qty string
		)
		if err := rows.Scan(&sp.RefKey, &sp.Name, &sp.ProductKey, &qty, &sp.AutoSelect); err != nil {
			return nil, fmt.Errorf("scan specification: %w", err)
		}
		if sp.OutputQty, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse output quantity of %s: %w", sp.RefKey, err)
		}
		sp.Active = true
		out = append(out, sp)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (s *Store) loadLines(ctx context.Context) ([]catalog.SpecLine, error) {
	rows, err := s.pool.Query(ctx, `
SELECT spec_key::text, nomenclature_key::text, COALESCE(quantity, 0)::text
FROM c1_spec_materials
WHERE spec_key IS NOT NULL AND nomenclature_key IS NOT NULL
ORDER BY ctid`)
	if err != nil {
		return nil, fmt.Errorf("query c1_spec_materials: %w", err)
	}
	defer rows.Close()

	var out []catalog.SpecLine
	for rows.Next() {
		var (
			l   catalog.SpecLine
			qty string
		)
		if err := rows.Scan(&l.SpecKey, &l.MaterialKey, &qty); err != nil {
			return nil, fmt.Errorf("scan spec line: %w", err)
		}
		if l.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse line quantity of %s: %w", l.SpecKey, err)
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}
