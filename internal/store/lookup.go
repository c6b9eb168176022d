package store

import "spesometro/internal/core"

// ResolutionTier tells which step of the category lookup produced a result.
type ResolutionTier int

const (
	// TierExact: a category with the requested id exists.
	TierExact ResolutionTier = iota
	// TierOther: the id is unknown and the collection's "other" record is used.
	TierOther
	// TierSentinel: neither exists and core.FallbackCategory is returned.
	TierSentinel
)

func (t ResolutionTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierOther:
		return "other"
	default:
		return "sentinel"
	}
}

// ResolveCategory looks id up in categories, degrading to the "other"
// record and then to core.FallbackCategory.
func ResolveCategory(categories []core.Category, id string) (core.Category, ResolutionTier) {
	if c, ok := findCategory(categories, id); ok {
		return c, TierExact
	}
	if c, ok := findCategory(categories, core.OtherCategoryID); ok {
		return c, TierOther
	}
	return core.FallbackCategory, TierSentinel
}

func findCategory(categories []core.Category, id string) (core.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}
