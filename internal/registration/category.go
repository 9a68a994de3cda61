package registration

import (
	"strconv"
	"strings"
)

// Competition categories. An empty category means the grade is outside every tier.
const (
	CategoryPrimary = "Primary"
	CategoryMiddle  = "Middle"
	CategoryHigh    = "High School"
)

// Category maps a grade to its competition tier. The web client runs the same mapping for
// live display; the value stored with a registration always comes from here.
func Category(grade int) string {
	switch {
	case grade >= 1 && grade <= 4:
		return CategoryPrimary
	case grade >= 5 && grade <= 7:
		return CategoryMiddle
	case grade >= 8 && grade <= 10:
		return CategoryHigh
	default:
		return ""
	}
}

// CategoryOf is Category for raw form input; anything that is not an integer has no category.
func CategoryOf(raw string) string {
	g, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return Category(g)
}
