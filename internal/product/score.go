package product

import "math"

// Tier weights of CompletionScore. They only need to preserve ordering:
// critical coverage outweighs important, which outweighs nice-to-have.
var tierWeights = map[Tier]float64{
	TierCritical:   60,
	TierImportant:  25,
	TierNiceToHave: 15,
}

// CompletionScore rates how listing-ready info is on a 0-100 scale. Each
// tier contributes its weight times the share of its fields that are
// filled, and every filled field is discounted by its confidence, never
// below half credit.
func CompletionScore(info Info, c ConfidenceMap) int {
	var total float64
	for tier, weight := range tierWeights {
		fields := FieldsInTier(tier)
		if len(fields) == 0 {
			continue
		}
		var earned float64
		for _, f := range fields {
			if !info.Has(f) {
				continue
			}
			earned += 0.5 + 0.5*c.Score(f)
		}
		total += weight * earned / float64(len(fields))
	}
	return int(math.Round(math.Min(total, 100)))
}
