package catalog

// UnknownType is the type name reported for items whose type is missing.
const UnknownType = "Unknown"

// TypeCatalog answers hierarchy and classification questions about nomenclature
// types. It is immutable once built.
type TypeCatalog struct {
	types   map[string]NomenclatureType
	paths   map[string][]string
	classes map[string]Class
	cls     Classifier
}

// NewTypeCatalog precomputes the path and class of every type. A nil classifier
// selects NewMarkerClassifier.
func NewTypeCatalog(types []NomenclatureType, cls Classifier) *TypeCatalog {
	if cls == nil {
		cls = NewMarkerClassifier()
	}
	tc := &TypeCatalog{
		types:   make(map[string]NomenclatureType, len(types)),
		paths:   make(map[string][]string, len(types)),
		classes: make(map[string]Class, len(types)),
		cls:     cls,
	}
	for _, t := range types {
		if _, dup := tc.types[t.ID]; !dup {
			tc.types[t.ID] = t
		}
	}
	for id := range tc.types {
		p := tc.walk(id)
		tc.paths[id] = p
		tc.classes[id] = cls.Classify(p)
	}
	return tc
}

// walk follows parent links, stopping at a root, an unknown parent or a type
// already seen on this walk.
func (tc *TypeCatalog) walk(id string) []string {
	var rev []string
	seen := map[string]bool{}
	cur := id
	for cur != "" && !seen[cur] {
		t, ok := tc.types[cur]
		if !ok {
			break
		}
		seen[cur] = true
		rev = append(rev, t.Name)
		cur = t.ParentID
	}
	path := make([]string, len(rev))
	for i, name := range rev {
		path[len(rev)-1-i] = name
	}
	return path
}

// HierarchyPath returns the ancestor names of a type, root first, including the
// type itself. Unknown types have an empty path.
func (tc *TypeCatalog) HierarchyPath(typeID string) []string {
	p := tc.paths[typeID]
	out := make([]string, len(p))
	copy(out, p)
	return out
}

// Classify returns the class of a type. Unknown types classify by an empty path.
func (tc *TypeCatalog) Classify(typeID string) Class {
	if c, ok := tc.classes[typeID]; ok {
		return c
	}
	return tc.cls.Classify(nil)
}

// TypeName returns the name of a type or UnknownType.
func (tc *TypeCatalog) TypeName(typeID string) string {
	if t, ok := tc.types[typeID]; ok {
		return t.Name
	}
	return UnknownType
}

// Counts returns the number of types per kind and how many are finished goods.
func (tc *TypeCatalog) Counts() (byKind map[Kind]int, finished int) {
	byKind = map[Kind]int{}
	for _, c := range tc.classes {
		byKind[c.Kind]++
		if c.FinishedGoods {
			finished++
		}
	}
	return byKind, finished
}

// Len is the number of known types.
func (tc *TypeCatalog) Len() int { return len(tc.types) }
