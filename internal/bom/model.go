package bom

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DivisionPlaces is the number of decimal places kept by every division.
const DivisionPlaces = 28

// ErrorKind names a data anomaly met during an explosion.
type ErrorKind string

const (
	KindNoSpec         ErrorKind = "no_spec"
	KindZeroQuantity   ErrorKind = "zero_quantity"
	KindCircularRef    ErrorKind = "circular_ref"
	KindNoNomenclature ErrorKind = "no_nomenclature"
	KindMultipleSpecs  ErrorKind = "multiple_specs"
)

// Kinds lists every error kind in display order.
var Kinds = []ErrorKind{KindNoSpec, KindZeroQuantity, KindCircularRef, KindNoNomenclature, KindMultipleSpecs}

// Label is the human-readable name of a kind.
func (k ErrorKind) Label() string {
	switch k {
	case KindNoSpec:
		return "No specification"
	case KindZeroQuantity:
		return "Zero output quantity"
	case KindCircularRef:
		return "Circular reference"
	case KindNoNomenclature:
		return "Unknown material"
	case KindMultipleSpecs:
		return "Multiple specifications"
	default:
		return string(k)
	}
}

// Error records one anomaly. It is data, not a Go error return.
type Error struct {
	ProductKey  string    `json:"product_key"`
	ProductName string    `json:"product_name"`
	ItemKey     string    `json:"item_key"`
	ItemName    string    `json:"item_name"`
	Kind        ErrorKind `json:"kind"`
	Detail      string    `json:"detail"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s (%s): %s", e.Kind, e.ItemName, e.ItemKey, e.Detail)
}

// Material is the aggregated requirement of one terminal material per unit of product.
type Material struct {
	Key      string
	Name     string
	Unit     string
	Quantity decimal.Decimal
	TypeID   string
	TypeName string
	Path     []string
}

// Result is the outcome of exploding one product.
type Result struct {
	ProductKey  string
	ProductName string
	// Materials have unique keys, in order of first contribution.
	Materials []Material
	Errors    []Error
}

// Material looks up an aggregated material by key.
func (r *Result) Material(key string) (Material, bool) {
	for _, m := range r.Materials {
		if m.Key == key {
			return m, true
		}
	}
	return Material{}, false
}

// Failed reports whether the product produced errors but no materials.
func (r *Result) Failed() bool {
	return len(r.Materials) == 0 && len(r.Errors) > 0
}

// Row is a persisted material line with its kg-equivalent and report levels.
// Empty level strings stand for missing levels.
type Row struct {
	ProductKey   string              `json:"product_key"`
	ProductName  string              `json:"product_name"`
	MaterialKey  string              `json:"material_key"`
	MaterialName string              `json:"material_name"`
	Unit         string              `json:"unit"`
	Quantity     decimal.Decimal     `json:"quantity"`
	KG           decimal.NullDecimal `json:"kg"`
	TypeID       string              `json:"type_id"`
	TypeName     string              `json:"type_name"`
	Level1       string              `json:"level_1"`
	Level2       string              `json:"level_2"`
	Level3       string              `json:"level_3"`
}

// Rows flattens a result for storage and reporting.
func (r *Result) Rows() []Row {
	out := make([]Row, 0, len(r.Materials))
	for _, m := range r.Materials {
		l1, l2, l3 := Levels(m.Path)
		row := Row{
			ProductKey:   r.ProductKey,
			ProductName:  r.ProductName,
			MaterialKey:  m.Key,
			MaterialName: m.Name,
			Unit:         m.Unit,
			Quantity:     m.Quantity,
			TypeID:       m.TypeID,
			TypeName:     m.TypeName,
			Level1:       l1,
			Level2:       l2,
			Level3:       l3,
		}
		if kg, ok := ToKilograms(m.Unit, m.Quantity); ok {
			row.KG = decimal.NewNullDecimal(kg)
		}
		out = append(out, row)
	}
	return out
}

// Calculation status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Calculation summarizes one batch run.
type Calculation struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Products   int       `json:"products_processed"`
	Materials  int       `json:"materials_total"`
	Errors     int       `json:"errors_total"`
	Status     string    `json:"status"`
}
