package manifest

import "github.com/eleven-am/gohls/internal/domain"

// Select picks the variant with the highest declared bandwidth. When no
// variant declares a bandwidth the first in manifest order wins; ties keep
// the earlier variant, so selection is deterministic for a given input.
func Select(variants []domain.Variant) (domain.Variant, error) {
	if len(variants) == 0 {
		return domain.Variant{}, domain.ErrNoVariants
	}

	best := variants[0]
	for _, v := range variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, nil
}
