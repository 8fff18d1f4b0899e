package bom

import (
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// ToKilograms converts a quantity to a kg-equivalent. Liters count as kilograms.
// The second value is false when the unit has no mass equivalent.
func ToKilograms(unit string, qty decimal.Decimal) (decimal.Decimal, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "кг", "kg", "л", "литр", "l", "liter":
		return qty, true
	case "г", "гр", "g", "gr", "мл", "ml":
		return qty.Div(thousand), true
	default:
		return decimal.Decimal{}, false
	}
}
