package bom

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/frumelad/bom-explode/internal/catalog"
)

// Product identifies a finished good to explode.
type Product struct {
	Key    string
	Name   string
	Unit   string
	TypeID string
}

// FinishedGoods returns items of a finished-goods type that are not excluded and
// have an active specification, in catalog load order.
func FinishedGoods(cat *catalog.Catalog, types *catalog.TypeCatalog) []Product {
	var out []Product
	for _, it := range cat.Items() {
		c := types.Classify(it.TypeID)
		if !c.FinishedGoods || c.Excluded() {
			continue
		}
		if _, ok := cat.ActiveSpec(it.Key); !ok {
			continue
		}
		out = append(out, Product{Key: it.Key, Name: it.Name, Unit: it.DisplayUnit(), TypeID: it.TypeID})
	}
	return out
}

// ExplodeAll explodes products with at most workers goroutines. Results are in
// product order. A cancelled context stops scheduling and returns its error.
func ExplodeAll(ctx context.Context, e *Exploder, products []Product, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Result, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range products {
		i, p := i, p
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Explode(p.Key, p.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stats are totals over a set of results.
type Stats struct {
	Products  int               `json:"products_processed"`
	Materials int               `json:"materials_total"`
	Errors    int               `json:"errors_total"`
	ByKind    map[ErrorKind]int `json:"errors_by_kind"`
	Failed    int               `json:"products_failed"`
}

func Summarize(results []*Result) Stats {
	s := Stats{ByKind: map[ErrorKind]int{}}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Products++
		s.Materials += len(r.Materials)
		s.Errors += len(r.Errors)
		for _, e := range r.Errors {
			s.ByKind[e.Kind]++
		}
		if r.Failed() {
			s.Failed++
		}
	}
	return s
}
