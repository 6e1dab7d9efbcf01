// Package dialogue decides where a listing conversation goes next: which
// stage follows the current one and what to ask the artisan.
package dialogue

import (
	"strings"

	"listingassist/internal/product"
)

// Stage is a step of the listing conversation.
type Stage string

const (
	StageIntroduction         Stage = "introduction"
	StageBasicInfo            Stage = "basic_info"
	StageMaterialsCrafting    Stage = "materials_crafting"
	StageCulturalSignificance Stage = "cultural_significance"
	StagePricingMarket        Stage = "pricing_market"
	StageFinalDetails         Stage = "final_details"
	StageSummary              Stage = "summary"
)

var stages = []Stage{
	StageIntroduction,
	StageBasicInfo,
	StageMaterialsCrafting,
	StageCulturalSignificance,
	StagePricingMarket,
	StageFinalDetails,
	StageSummary,
}

// Stages returns every stage in progression order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ParseStage normalizes s; unknown values map to StageIntroduction.
func ParseStage(s string) Stage {
	v := Stage(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v
	}
	return StageIntroduction
}

func (s Stage) Valid() bool {
	for _, v := range stages {
		if v == s {
			return true
		}
	}
	return false
}

func (s Stage) Terminal() bool { return s == StageSummary }

// NextStage picks the stage that follows current. Missing critical fields
// always send the conversation back to basic_info; otherwise the progression
// skips stages whose information is already known.
func NextStage(current Stage, gaps product.Gaps, info product.Info) Stage {
	if len(gaps.Critical) > 0 {
		return StageBasicInfo
	}
	unknown := func(field string) bool {
		return gaps.Missing(field) || !info.Has(field)
	}
	switch ParseStage(string(current)) {
	case StageIntroduction:
		return StageBasicInfo
	case StageBasicInfo:
		if unknown(product.FieldTimeToMake) || unknown(product.FieldCraftingProcess) {
			return StageMaterialsCrafting
		}
		return StageCulturalSignificance
	case StageMaterialsCrafting:
		return StageCulturalSignificance
	case StageCulturalSignificance:
		if unknown(product.FieldPricing) {
			return StagePricingMarket
		}
		return StageFinalDetails
	case StagePricingMarket:
		return StageFinalDetails
	default:
		// final_details and summary both lead to summary.
		return StageSummary
	}
}
