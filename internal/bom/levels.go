package bom

// Levels maps a type path onto three report levels. Short paths shift right so
// the type itself always lands on level 3.
func Levels(path []string) (l1, l2, l3 string) {
	switch n := len(path); {
	case n >= 3:
		return path[0], path[1], path[2]
	case n == 2:
		return path[0], "", path[1]
	case n == 1:
		return "", "", path[0]
	default:
		return "", "", ""
	}
}
