package product

import "strings"

// Merge folds update into prior and returns the result; neither input is
// modified. Arrays take the ordered union (first spelling wins, compared
// case-insensitively), scalars are replaced only by non-blank values and
// nested objects are merged field by field. A field set in prior is never
// unset, so repeated merges of the same update are idempotent.
func Merge(prior, update Info) Info {
	out := prior.Clone()

	out.ProductType = overrideText(out.ProductType, update.ProductType)
	out.Materials = UnionStrings(out.Materials, update.Materials)
	out.Colors = UnionStrings(out.Colors, update.Colors)
	out.CraftingProcess = overrideText(out.CraftingProcess, update.CraftingProcess)
	out.Dimensions = mergeDimensions(out.Dimensions, update.Dimensions)
	out.CulturalSignificance = overrideText(out.CulturalSignificance, update.CulturalSignificance)
	out.TimeToMake = overrideText(out.TimeToMake, update.TimeToMake)
	out.Pricing = mergePricing(out.Pricing, update.Pricing)
	out.TargetMarket = overrideText(out.TargetMarket, update.TargetMarket)
	out.UniqueFeatures = UnionStrings(out.UniqueFeatures, update.UniqueFeatures)
	out.CareInstructions = overrideText(out.CareInstructions, update.CareInstructions)
	out.CustomizationOptions = UnionStrings(out.CustomizationOptions, update.CustomizationOptions)

	return out
}

// UnionStrings returns the values of a followed by those of b that were not
// seen yet. Blank entries are dropped and values are trimmed. The result is
// nil when empty.
func UnionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	add := func(values []string) {
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			key := strings.ToLower(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	add(a)
	add(b)
	return out
}

func overrideText(prior, next string) string {
	if next = strings.TrimSpace(next); next != "" {
		return next
	}
	return prior
}

func overrideNumber(prior, next float64) float64 {
	if next != 0 {
		return next
	}
	return prior
}

func mergeDimensions(prior, next *Dimensions) *Dimensions {
	if next.IsZero() {
		return prior
	}
	var out Dimensions
	if prior != nil {
		out = *prior
	}
	out.Length = overrideNumber(out.Length, next.Length)
	out.Width = overrideNumber(out.Width, next.Width)
	out.Height = overrideNumber(out.Height, next.Height)
	out.Weight = overrideNumber(out.Weight, next.Weight)
	out.Unit = overrideText(out.Unit, next.Unit)
	return &out
}

func mergePricing(prior, next *Pricing) *Pricing {
	if next.IsZero() {
		return prior
	}
	var out Pricing
	if prior != nil {
		out = *prior
		out.Factors = cloneStrings(prior.Factors)
	}
	out.Cost = overrideNumber(out.Cost, next.Cost)
	out.Currency = overrideText(out.Currency, next.Currency)
	out.Factors = UnionStrings(out.Factors, next.Factors)
	return &out
}
