package catalog

import "strings"

// Kind is the explosion role of a nomenclature type.
type Kind int

const (
	KindOther Kind = iota
	KindExcluded
	KindSemifinished
	KindTerminal
)

func (k Kind) String() string {
	switch k {
	case KindExcluded:
		return "excluded"
	case KindSemifinished:
		return "semifinished"
	case KindTerminal:
		return "terminal"
	default:
		return "other"
	}
}

// Class is the classification of one type. FinishedGoods is independent of Kind
// but is never set for excluded types.
type Class struct {
	Kind          Kind
	FinishedGoods bool
}

func (c Class) Excluded() bool     { return c.Kind == KindExcluded }
func (c Class) Semifinished() bool { return c.Kind == KindSemifinished }
func (c Class) Terminal() bool     { return c.Kind == KindTerminal }

// Classifier decides the class of a type from its hierarchy path (root first).
type Classifier interface {
	Classify(path []string) Class
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(path []string) Class

func (f ClassifierFunc) Classify(path []string) Class { return f(path) }

// Markers are the lower-case path fragments MarkerClassifier looks for.
type Markers struct {
	Archive       []string
	ExcludedLines []string
	GoodsCategory string // matched against whole path elements
	Semifinished  []string
	Terminal      []string
	FinishedGoods []string
}

// DefaultMarkers matches the naming used by the 1C type tree.
func DefaultMarkers() Markers {
	return Markers{
		Archive:       []string{"архив"},
		ExcludedLines: []string{"продукция timtim серии"},
		GoodsCategory: "товары",
		Semifinished:  []string{"полуфабрикат"},
		Terminal:      []string{"себестоимость", "расходные материалы"},
		FinishedGoods: []string{"готовая продукция"},
	}
}

// MarkerClassifier classifies by substring search over the lower-cased path
// joined with spaces.
type MarkerClassifier struct {
	Markers Markers
}

// NewMarkerClassifier returns a classifier using DefaultMarkers.
func NewMarkerClassifier() MarkerClassifier {
	return MarkerClassifier{Markers: DefaultMarkers()}
}

func (m MarkerClassifier) Classify(path []string) Class {
	lower := make([]string, len(path))
	for i, p := range path {
		lower[i] = strings.ToLower(p)
	}
	joined := strings.Join(lower, " ")

	if containsAny(joined, m.Markers.Archive) || containsAny(joined, m.Markers.ExcludedLines) {
		return Class{Kind: KindExcluded}
	}
	if m.Markers.GoodsCategory != "" {
		for _, p := range lower {
			if p == m.Markers.GoodsCategory {
				return Class{Kind: KindExcluded}
			}
		}
	}

	var c Class
	switch {
	case containsAny(joined, m.Markers.Semifinished):
		c.Kind = KindSemifinished
	case containsAny(joined, m.Markers.Terminal):
		c.Kind = KindTerminal
	}
	c.FinishedGoods = containsAny(joined, m.Markers.FinishedGoods)
	return c
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
