package merge

import (
	"strconv"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// MergeRules deduplicates conditional-format rules across source
// documents. Two rules are equivalent when their condition and their
// interned master style are equal; equivalent rules contribute their
// ranges to a single output rule. Ranges whose union stays exactly
// rectangular are coalesced, anything else stays as a range list on
// the same rule. Output order is first-seen, so equal inputs always
// produce equal output.
func MergeRules(rules []models.SourceRule, reg *StyleRegistry) []models.ConditionalFormatRule {
	var out []models.ConditionalFormatRule
	index := make(map[string]int)

	for _, rule := range rules {
		var id models.StyleID
		if !rule.Style.IsZero() {
			id = reg.Register(rule.Style)
		}
		key := rule.Condition + "\x1f" + strconv.Itoa(int(id))

		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, models.ConditionalFormatRule{
				Condition: rule.Condition,
				Style:     id,
			})
		}
		for _, r := range rule.Ranges {
			out[pos].Ranges = addRange(out[pos].Ranges, r)
		}
	}
	return out
}

// addRange inserts r into ranges, coalescing it with any existing
// range whose union with r is exactly rectangular. Coalescing can
// cascade, so the merged rectangle is re-inserted from scratch.
func addRange(ranges []models.RangeRef, r models.RangeRef) []models.RangeRef {
	for i, ex := range ranges {
		if ex == r {
			return ranges
		}
		if ex.CanUnion(r) {
			rest := make([]models.RangeRef, 0, len(ranges)-1)
			rest = append(rest, ranges[:i]...)
			rest = append(rest, ranges[i+1:]...)
			return addRange(rest, ex.Union(r))
		}
	}
	return append(ranges, r)
}
