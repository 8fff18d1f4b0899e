package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frumelad/bom-explode/internal/bom"
)

// groupWriter renders sorted rows as a three level outline with kg subtotals.
type groupWriter struct {
	lines  []string
	indent string

	cur1, cur2, cur3    string
	open1, open2, open3 bool
	sub1, sub2, sub3    decimal.Decimal
	grand               decimal.Decimal
}

func (g *groupWriter) emit(format string, args ...any) {
	g.lines = append(g.lines, g.indent+fmt.Sprintf(format, args...))
}

func (g *groupWriter) flush3() {
	if g.open3 && g.sub3.IsPositive() {
		g.emit("            Subtotal %s: %s kg", g.cur3, FormatQty(g.sub3))
	}
	g.open3, g.sub3 = false, decimal.Zero
}

func (g *groupWriter) flush2() {
	g.flush3()
	if g.open2 && g.cur2 != "" && g.sub2.IsPositive() {
		g.emit("        Total %s: %s kg", g.cur2, FormatQty(g.sub2))
	}
	g.open2, g.sub2 = false, decimal.Zero
}

func (g *groupWriter) flush1() {
	g.flush2()
	if g.open1 && g.sub1.IsPositive() {
		g.emit("    Total %s: %s kg", g.cur1, FormatQty(g.sub1))
	}
	g.open1, g.sub1 = false, decimal.Zero
}

// write renders rows, which must already be sorted with SortRows.
func (g *groupWriter) write(rows []bom.Row) {
	for _, r := range rows {
		l1 := orDefault(r.Level1, OtherLabel)
		l2 := r.Level2
		l3 := orDefault(r.Level3, NoTypeLabel)

		if !g.open1 || l1 != g.cur1 {
			g.flush1()
			g.open1, g.cur1 = true, l1
			g.lines = append(g.lines, "")
			g.emit("%s", l1)
		}
		if !g.open2 || l2 != g.cur2 {
			g.flush2()
			g.open2, g.cur2 = true, l2
			if l2 != "" {
				g.emit("    %s", l2)
			}
		}
		if !g.open3 || l3 != g.cur3 {
			g.flush3()
			g.open3, g.cur3 = true, l3
			if l2 != "" {
				g.emit("        %s", l3)
			} else {
				g.emit("    %s", l3)
			}
		}

		item := fmt.Sprintf("- %s: %s %s", r.MaterialName, FormatQty(r.Quantity), orDefault(r.Unit, "шт"))
		if l2 != "" {
			g.emit("            %s", item)
		} else {
			g.emit("        %s", item)
		}

		if r.KG.Valid {
			kg := r.KG.Decimal
			g.sub1 = g.sub1.Add(kg)
			g.sub2 = g.sub2.Add(kg)
			g.sub3 = g.sub3.Add(kg)
			g.grand = g.grand.Add(kg)
		}
	}
	g.flush1()
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
