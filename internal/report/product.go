package report

import (
	"fmt"
	"strings"

	"github.com/frumelad/bom-explode/internal/bom"
)

// Product renders the per-unit BOM of one product. rows are sorted in place.
func Product(productName string, rows []bom.Row, errs []bom.Error) string {
	SortRows(rows)

	g := &groupWriter{}
	g.lines = append(g.lines, "BOM per 1 unit: "+productName, strings.Repeat("=", 60))
	g.write(rows)

	g.lines = append(g.lines,
		"",
		strings.Repeat("=", 60),
		fmt.Sprintf("TOTAL WEIGHT: %s kg", FormatQty(g.grand)),
	)

	if len(errs) > 0 {
		g.lines = append(g.lines, "", "ERRORS:")
		for _, e := range errs {
			g.lines = append(g.lines, fmt.Sprintf("  - [%s] %s: %s", e.Kind, e.ItemName, e.Detail))
		}
	}
	return joinLines(g.lines)
}

// FromResult renders a freshly exploded result.
func FromResult(r *bom.Result) string {
	return Product(r.ProductName, r.Rows(), r.Errors)
}
