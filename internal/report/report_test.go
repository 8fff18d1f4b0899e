package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frumelad/bom-explode/internal/bom"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func row(product, name, unit, qty, l1, l2, l3 string) bom.Row {
	r := bom.Row{
		ProductKey:   product,
		ProductName:  "name-" + product,
		MaterialKey:  name,
		MaterialName: name,
		Unit:         unit,
		Quantity:     d(qty),
		Level1:       l1,
		Level2:       l2,
		Level3:       l3,
	}
	if kg, ok := bom.ToKilograms(unit, r.Quantity); ok {
		r.KG = decimal.NewNullDecimal(kg)
	}
	return r
}

func count(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestFormatQty(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"0":          "0",
		"1":          "1",
		"1.5":        "1.5",
		"2.50000":    "2.5",
		"0.12345":    "0.1235",
		"0.005":      "0.0050",
		"0.00001234": "0.000012",
		"120":        "120",
		"-3.25":      "-3.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatQty(d(in)), "input %s", in)
	}
}

func TestSortRows(t *testing.T) {
	t.Parallel()
	rows := []bom.Row{
		row("p", "z", "кг", "1", "", "", "Мука"),
		row("p", "b", "кг", "1", "A", "", "X"),
		row("p", "a", "кг", "1", "A", "", "X"),
		row("p", "c", "кг", "1", "A", "B", "X"),
		row("p", "d", "кг", "1", "A", "B", ""),
	}
	SortRows(rows)

	var got []string
	for _, r := range rows {
		got = append(got, r.MaterialName)
	}
	assert.Equal(t, []string{"c", "d", "a", "b", "z"}, got)
}

func TestProductTwoTopLevelGroups(t *testing.T) {
	t.Parallel()
	rows := []bom.Row{
		row("p", "Пленка", "г", "500", "Упаковка", "", "Пленка"),
		row("p", "Мука", "кг", "1", "Себестоимость", "", "Сырье"),
		row("p", "Коробка", "шт", "1", "Упаковка", "", "Коробки"),
	}

	out := Product("Pie", rows, nil)
	lines := strings.Split(out, "\n")

	assert.Equal(t, 2, count(lines, "    Total "), out)
	assert.Equal(t, 1, count(lines, "TOTAL WEIGHT: 1.5 kg"), out)
	assert.Contains(t, out, "    Total Себестоимость: 1 kg")
	assert.Contains(t, out, "    Total Упаковка: 0.5 kg")
	assert.Contains(t, out, "        - Коробка: 1 шт")
	assert.NotContains(t, out, "Subtotal Коробки")
	assert.Less(t, strings.Index(out, "Себестоимость"), strings.Index(out, "Упаковка"))
}

func TestProductNestedGroups(t *testing.T) {
	t.Parallel()
	rows := []bom.Row{
		row("p", "Мука", "кг", "1", "Себестоимость", "Сырье", "Мука"),
		row("p", "Сахар", "г", "250", "Себестоимость", "Сырье", "Сахар"),
		row("p", "Соль", "г", "10", "Себестоимость", "Специи", "Соль"),
		row("p", "Прочее", "шт", "2", "", "", ""),
	}
	errs := []bom.Error{{ItemName: "Крем", Kind: bom.KindNoSpec, Detail: "no spec"}}

	out := Product("Cake", rows, errs)
	lines := strings.Split(out, "\n")

	require.Equal(t, "BOM per 1 unit: Cake", lines[0])
	assert.Contains(t, out, "            Subtotal Мука: 1 kg")
	assert.Contains(t, out, "            Subtotal Сахар: 0.25 kg")
	assert.Contains(t, out, "        Total Сырье: 1.25 kg")
	assert.Contains(t, out, "        Total Специи: 0.01 kg")
	assert.Contains(t, out, "    Total Себестоимость: 1.26 kg")
	assert.Contains(t, out, "\nOther\n    No type\n        - Прочее: 2 шт")
	assert.Equal(t, 1, count(lines, "    Total Себестоимость"))
	assert.Contains(t, out, "TOTAL WEIGHT: 1.26 kg")
	assert.Contains(t, out, "ERRORS:\n  - [no_spec] Крем: no spec")

	totalSpices := strings.Index(out, "Total Специи")
	raw := strings.Index(out, "    Сырье")
	subtotalSugar := strings.Index(out, "Subtotal Сахар")
	totalRaw := strings.Index(out, "Total Сырье")
	totalCost := strings.Index(out, "Total Себестоимость")
	assert.True(t, totalSpices < raw && subtotalSugar < totalRaw && totalRaw < totalCost, out)
}

func TestFullReport(t *testing.T) {
	t.Parallel()
	rows := []bom.Row{
		row("b", "Мука", "кг", "0.4", "Себестоимость", "", "Сырье"),
		row("a", "Сахар", "кг", "0.1", "Себестоимость", "", "Сырье"),
	}
	errs := []bom.Error{
		{ProductKey: "a", ProductName: "name-a", ItemName: "Крем", Kind: bom.KindNoSpec, Detail: "fallback"},
		{ProductKey: "c", ProductName: "name-c", ItemName: "name-c", Kind: bom.KindNoSpec},
		{ProductKey: "c", ProductName: "name-c", ItemName: "Unknown (x)", Kind: bom.KindNoNomenclature},
		{ProductKey: "d", ProductName: "name-d", ItemName: "Крем", Kind: bom.KindNoSpec},
	}
	now := time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC)

	out := Full(Sections(rows, errs), now)

	assert.Contains(t, out, "Generated: 04.03.2026 09:05")
	assert.Contains(t, out, "  Products exploded: 2")
	assert.Contains(t, out, "  Material rows: 2")
	assert.Contains(t, out, "  Products failed: 2")
	assert.Contains(t, out, "  Errors: 4")
	assert.Less(t, strings.Index(out, "PRODUCT: name-a"), strings.Index(out, "PRODUCT: name-b"))
	assert.Contains(t, out, "  WARNINGS:\n    - [no_spec] Крем\n      fallback")
	assert.Contains(t, out, "*** TOTAL WEIGHT PER UNIT: 0.4 kg ***")
	assert.Contains(t, out, "    x Unknown material: Unknown (x)")
	assert.Contains(t, out, "  * Крем\n    (affects 2 product(s))")
	assert.Less(t, strings.Index(out, "* Крем"), strings.Index(out, "* name-c"))
	assert.True(t, strings.HasSuffix(out, "END OF REPORT\n"+strings.Repeat("=", 70)))
}

func TestFullReportEmpty(t *testing.T) {
	t.Parallel()
	out := Full(nil, time.Unix(0, 0).UTC())
	assert.Contains(t, out, "All products exploded.")
	assert.Contains(t, out, "All required specifications found.")
}

func TestSectionsFromResults(t *testing.T) {
	t.Parallel()
	results := []*bom.Result{
		{ProductKey: "a", ProductName: "A", Materials: []bom.Material{{Key: "m", Name: "M", Unit: "кг", Quantity: d("1")}}},
		{ProductKey: "empty", ProductName: "Empty"},
		nil,
	}
	s := SectionsFromResults(results)
	require.Len(t, s, 1)
	assert.Equal(t, "a", s[0].Key)
	require.Len(t, s[0].Rows, 1)
	assert.True(t, s[0].Rows[0].KG.Valid)
}

func TestFromResult(t *testing.T) {
	t.Parallel()
	res := &bom.Result{
		ProductKey:  "p",
		ProductName: "Пирог",
		Materials: []bom.Material{
			{Key: "t", Name: "Мука", Unit: "г", Quantity: d("500"), Path: []string{"Себестоимость", "Мука"}},
		},
		Errors: []bom.Error{{ProductKey: "p", ItemName: "Крем", Kind: bom.KindNoSpec, Detail: "no active specification"}},
	}
	out := FromResult(res)
	assert.True(t, strings.HasPrefix(out, "BOM per 1 unit: Пирог"))
	assert.Contains(t, out, "TOTAL WEIGHT: 0.5 kg")
	assert.Contains(t, out, "[no_spec] Крем: no active specification")
}
