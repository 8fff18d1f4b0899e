package catalog

import "github.com/shopspring/decimal"

// DefaultUnit is shown when an item carries neither a unit name nor a unit code.
const DefaultUnit = "шт"

// NomenclatureType is one node of the item type hierarchy.
type NomenclatureType struct {
	ID       string
	Name     string
	ParentID string // empty for a root
	IsFolder bool
}

// Item is a catalog entry that can be a product, a semi-finished good or a raw material.
type Item struct {
	Key      string
	Name     string
	UnitCode string
	UnitName string
	TypeID   string
}

// DisplayUnit returns the unit used in results and reports.
func (i Item) DisplayUnit() string {
	if i.UnitName != "" {
		return i.UnitName
	}
	if i.UnitCode != "" {
		return i.UnitCode
	}
	return DefaultUnit
}

// Specification is a recipe producing OutputQty units of ProductKey.
type Specification struct {
	RefKey     string
	Name       string
	ProductKey string
	OutputQty  decimal.Decimal
	Active     bool
	AutoSelect bool
}

// SpecLine is the quantity of one material consumed by one execution of a specification.
type SpecLine struct {
	SpecKey     string
	MaterialKey string
	Quantity    decimal.Decimal
}

// Snapshot is the raw catalog as loaded from storage, in load order.
type Snapshot struct {
	Types []NomenclatureType
	Items []Item
	Specs []Specification
	Lines []SpecLine
}
