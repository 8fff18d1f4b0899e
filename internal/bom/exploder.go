package bom

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frumelad/bom-explode/internal/catalog"
)

// Exploder reduces products to terminal materials per one unit of output.
// It only reads the catalogs and is safe for concurrent use.
type Exploder struct {
	cat            *catalog.Catalog
	types          *catalog.TypeCatalog
	reportMultiple bool
}

// Option configures an Exploder.
type Option func(*Exploder)

// WithMultipleSpecsReporting records a multiple_specs error whenever a
// specification was chosen among several active ones. The chosen one is still used.
func WithMultipleSpecsReporting() Option {
	return func(e *Exploder) { e.reportMultiple = true }
}

func NewExploder(cat *catalog.Catalog, types *catalog.TypeCatalog, opts ...Option) *Exploder {
	e := &Exploder{cat: cat, types: types}
	for _, o := range opts {
		o(e)
	}
	return e
}

// explosion is the state of a single Explode call.
type explosion struct {
	res     *Result
	index   map[string]int
	visited map[string]bool
	warned  map[string]bool
}

func (x *explosion) fail(itemKey, itemName string, kind ErrorKind, detail string) {
	x.res.Errors = append(x.res.Errors, Error{
		ProductKey:  x.res.ProductKey,
		ProductName: x.res.ProductName,
		ItemKey:     itemKey,
		ItemName:    itemName,
		Kind:        kind,
		Detail:      detail,
	})
}

// add sums qty into the material entry for item, creating it on first use.
func (x *explosion) add(item catalog.Item, qty decimal.Decimal, types *catalog.TypeCatalog) {
	if i, ok := x.index[item.Key]; ok {
		m := &x.res.Materials[i]
		m.Quantity = m.Quantity.Add(qty)
		return
	}
	x.index[item.Key] = len(x.res.Materials)
	x.res.Materials = append(x.res.Materials, Material{
		Key:      item.Key,
		Name:     item.Name,
		Unit:     item.DisplayUnit(),
		Quantity: qty,
		TypeID:   item.TypeID,
		TypeName: types.TypeName(item.TypeID),
		Path:     types.HierarchyPath(item.TypeID),
	})
}

// Explode computes the terminal materials needed for one unit of a product.
// Data problems are reported in Result.Errors.
func (e *Exploder) Explode(productKey, productName string) *Result {
	x := &explosion{
		res:     &Result{ProductKey: productKey, ProductName: productName},
		index:   map[string]int{},
		visited: map[string]bool{},
		warned:  map[string]bool{},
	}

	spec, ok := e.cat.ActiveSpec(productKey)
	if !ok {
		x.fail(productKey, productName, KindNoSpec, "no active specification for finished product")
		return x.res
	}
	if !spec.OutputQty.IsPositive() {
		x.fail(productKey, productName, KindZeroQuantity, fmt.Sprintf("specification %s output quantity is %s", spec.RefKey, spec.OutputQty))
		return x.res
	}
	e.checkCandidates(x, productKey, productName, spec)

	mult := decimal.NewFromInt(1).DivRound(spec.OutputQty, DivisionPlaces)
	e.process(x, spec.RefKey, mult, []string{productName})
	return x.res
}

func (e *Exploder) process(x *explosion, specKey string, mult decimal.Decimal, path []string) {
	if x.visited[specKey] {
		x.fail(specKey, path[len(path)-1], KindCircularRef, "path: "+strings.Join(path, " -> "))
		return
	}
	x.visited[specKey] = true

	for _, line := range e.cat.SpecLines(specKey) {
		qty := line.Quantity.Mul(mult)

		item, ok := e.cat.Item(line.MaterialKey)
		if !ok {
			x.fail(line.MaterialKey, fmt.Sprintf("Unknown (%s)", line.MaterialKey), KindNoNomenclature, "material not found in nomenclature")
			continue
		}

		if !e.types.Classify(item.TypeID).Semifinished() {
			x.add(item, qty, e.types)
			continue
		}

		sub, ok := e.cat.ActiveSpec(item.Key)
		if !ok {
			x.fail(item.Key, item.Name, KindNoSpec, "no active specification for semi-finished item, counted as material")
			x.add(item, qty, e.types)
			continue
		}
		if !sub.OutputQty.IsPositive() {
			x.fail(item.Key, item.Name, KindZeroQuantity, fmt.Sprintf("specification %s output quantity is %s", sub.RefKey, sub.OutputQty))
			continue
		}
		e.checkCandidates(x, item.Key, item.Name, sub)

		next := make([]string, len(path), len(path)+1)
		copy(next, path)
		e.process(x, sub.RefKey, qty.DivRound(sub.OutputQty, DivisionPlaces), append(next, item.Name))
	}
}

func (e *Exploder) checkCandidates(x *explosion, key, name string, spec catalog.Specification) {
	if !e.reportMultiple || x.warned[key] {
		return
	}
	if n := e.cat.Candidates(key); n > 1 {
		x.warned[key] = true
		x.fail(key, name, KindMultipleSpecs, fmt.Sprintf("%d active specifications, using %s", n, spec.RefKey))
	}
}
