package catalog

// Catalog holds items, the selected active specification per product and the
// lines of every specification. Built once per run and read concurrently.
type Catalog struct {
	items      map[string]Item
	order      []string
	active     map[string]Specification
	candidates map[string]int
	lines      map[string][]SpecLine
}

// New builds a Catalog from rows in load order.
//
// Among active specifications of a product those marked auto-select win; among
// the remaining candidates the first one loaded is kept.
func New(items []Item, specs []Specification, lines []SpecLine) *Catalog {
	c := &Catalog{
		items:      make(map[string]Item, len(items)),
		order:      make([]string, 0, len(items)),
		active:     map[string]Specification{},
		candidates: map[string]int{},
		lines:      map[string][]SpecLine{},
	}
	for _, it := range items {
		if _, dup := c.items[it.Key]; dup {
			continue
		}
		c.items[it.Key] = it
		c.order = append(c.order, it.Key)
	}

	for _, s := range specs {
		if !s.Active {
			continue
		}
		c.candidates[s.ProductKey]++
		cur, ok := c.active[s.ProductKey]
		if !ok || (s.AutoSelect && !cur.AutoSelect) {
			c.active[s.ProductKey] = s
		}
	}

	for _, l := range lines {
		c.lines[l.SpecKey] = append(c.lines[l.SpecKey], l)
	}
	return c
}

// FromSnapshot builds a Catalog from a loaded snapshot.
func FromSnapshot(s *Snapshot) *Catalog {
	return New(s.Items, s.Specs, s.Lines)
}

func (c *Catalog) Item(key string) (Item, bool) {
	it, ok := c.items[key]
	return it, ok
}

// Items returns all items in load order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

// ActiveSpec returns the specification chosen for a product.
func (c *Catalog) ActiveSpec(productKey string) (Specification, bool) {
	s, ok := c.active[productKey]
	return s, ok
}

// Candidates is the number of active specifications found for a product before
// selection.
func (c *Catalog) Candidates(productKey string) int {
	return c.candidates[productKey]
}

// SpecLines returns the lines of a specification in load order.
func (c *Catalog) SpecLines(specKey string) []SpecLine {
	return c.lines[specKey]
}

// Stats reports sizes for logging.
func (c *Catalog) Stats() (items, specs, lines int) {
	for _, ls := range c.lines {
		lines += len(ls)
	}
	return len(c.items), len(c.active), lines
}
