package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/frumelad/bom-explode/internal/bom"
)

// Section is the stored outcome for one product.
type Section struct {
	Key    string
	Name   string
	Rows   []bom.Row
	Errors []bom.Error
}

func (s Section) failed() bool { return len(s.Rows) == 0 && len(s.Errors) > 0 }

// Sections groups flat rows and errors by product key.
func Sections(rows []bom.Row, errs []bom.Error) []Section {
	idx := map[string]int{}
	var out []Section
	get := func(key, name string) *Section {
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, Section{Key: key, Name: name})
		}
		return &out[i]
	}
	for _, r := range rows {
		s := get(r.ProductKey, r.ProductName)
		s.Rows = append(s.Rows, r)
	}
	for _, e := range errs {
		s := get(e.ProductKey, e.ProductName)
		s.Errors = append(s.Errors, e)
	}
	return out
}

// SectionsFromResults converts in-memory results.
func SectionsFromResults(results []*bom.Result) []Section {
	out := make([]Section, 0, len(results))
	for _, r := range results {
		if r == nil || (len(r.Materials) == 0 && len(r.Errors) == 0) {
			continue
		}
		out = append(out, Section{Key: r.ProductKey, Name: r.ProductName, Rows: r.Rows(), Errors: r.Errors})
	}
	return out
}

// MissingSpec is an item lacking an active specification.
type MissingSpec struct {
	ItemName string
	Products int
}

// MissingSpecs counts, per item name, the distinct products hit by a no_spec error.
// Sorted by product count descending, then name.
func MissingSpecs(sections []Section) []MissingSpec {
	affected := map[string]map[string]bool{}
	for _, s := range sections {
		for _, e := range s.Errors {
			if e.Kind != bom.KindNoSpec {
				continue
			}
			if affected[e.ItemName] == nil {
				affected[e.ItemName] = map[string]bool{}
			}
			affected[e.ItemName][s.Key] = true
		}
	}
	out := make([]MissingSpec, 0, len(affected))
	for name, ps := range affected {
		out = append(out, MissingSpec{ItemName: name, Products: len(ps)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Products != out[j].Products {
			return out[i].Products > out[j].Products
		}
		return out[i].ItemName < out[j].ItemName
	})
	return out
}

func byName(sections []Section) []Section {
	out := append([]Section(nil), sections...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Full renders the report over all products: statistics, exploded products with
// their warnings, failed products and the missing specification summary.
func Full(sections []Section, now time.Time) string {
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)
	sections = byName(sections)

	var ok, failed []Section
	materials, errorsTotal := 0, 0
	for _, s := range sections {
		materials += len(s.Rows)
		errorsTotal += len(s.Errors)
		switch {
		case len(s.Rows) > 0:
			ok = append(ok, s)
		case s.failed():
			failed = append(failed, s)
		}
	}

	var b []string
	b = append(b,
		rule,
		"BOM EXPLOSION REPORT",
		"Generated: "+now.Format("02.01.2006 15:04"),
		rule,
		"",
		"SUMMARY:",
		fmt.Sprintf("  Products exploded: %d", len(ok)),
		fmt.Sprintf("  Material rows: %d", materials),
		fmt.Sprintf("  Products failed: %d", len(failed)),
		fmt.Sprintf("  Errors: %d", errorsTotal),
	)

	b = append(b, "", "", rule, "PART 1: EXPLODED PRODUCTS", rule)
	for _, s := range ok {
		b = append(b, "", thin, "PRODUCT: "+s.Name, thin)

		rows := append([]bom.Row(nil), s.Rows...)
		SortRows(rows)
		g := &groupWriter{indent: "  "}
		g.write(rows)
		b = append(b, g.lines...)
		if g.grand.IsPositive() {
			b = append(b, "", fmt.Sprintf("  *** TOTAL WEIGHT PER UNIT: %s kg ***", FormatQty(g.grand)))
		}

		if len(s.Errors) > 0 {
			b = append(b, "", "  WARNINGS:")
			for _, e := range s.Errors {
				b = append(b, fmt.Sprintf("    - [%s] %s", e.Kind, e.ItemName))
				if e.Detail != "" {
					b = append(b, "      "+e.Detail)
				}
			}
		}
	}

	b = append(b, "", "", rule, "PART 2: FAILED PRODUCTS", rule)
	if len(failed) == 0 {
		b = append(b, "", "All products exploded.")
	}
	for _, s := range failed {
		b = append(b, "", thin, "PRODUCT: "+s.Name, thin, "", "  Reasons:")
		errs := append([]bom.Error(nil), s.Errors...)
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].ItemName < errs[j].ItemName })
		for _, e := range errs {
			b = append(b, fmt.Sprintf("    x %s: %s", e.Kind.Label(), e.ItemName))
			if e.Detail != "" {
				b = append(b, "       "+e.Detail)
			}
		}
	}

	b = append(b, "", "", rule, "PART 3: MISSING SPECIFICATIONS", rule)
	missing := MissingSpecs(sections)
	if len(missing) == 0 {
		b = append(b, "", "All required specifications found.")
	} else {
		b = append(b, "", "Items without an active specification:", "")
		for _, m := range missing {
			b = append(b, "  * "+m.ItemName, fmt.Sprintf("    (affects %d product(s))", m.Products))
		}
	}

	b = append(b, "", "", rule, "END OF REPORT", rule)
	return joinLines(b)
}
