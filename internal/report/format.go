package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frumelad/bom-explode/internal/bom"
)

const (
	OtherLabel  = "Other"
	NoTypeLabel = "No type"
)

var (
	tiny  = decimal.RequireFromString("0.0001")
	small = decimal.RequireFromString("0.01")
)

// FormatQty renders a quantity for reports. Very small values keep fixed
// precision so they do not collapse to zero.
func FormatQty(q decimal.Decimal) string {
	abs := q.Abs()
	switch {
	case q.IsZero():
		return "0"
	case abs.LessThan(tiny):
		return q.StringFixed(6)
	case abs.LessThan(small):
		return q.StringFixed(4)
	}
	s := q.StringFixed(4)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// SortRows orders rows by level 1, level 2 and level 3 with empty levels last,
// then by material name.
func SortRows(rows []bom.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := cmpLevel(a.Level1, b.Level1); c != 0 {
			return c < 0
		}
		if c := cmpLevel(a.Level2, b.Level2); c != 0 {
			return c < 0
		}
		if c := cmpLevel(a.Level3, b.Level3); c != 0 {
			return c < 0
		}
		return a.MaterialName < b.MaterialName
	})
}

func cmpLevel(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	default:
		return strings.Compare(a, b)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
