package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"listingassist/internal/product"
)

func criticalComplete() product.Info {
	return product.Info{
		ProductType:     "ceramic vase",
		Materials:       []string{"clay"},
		Colors:          []string{"blue"},
		CraftingProcess: "wheel thrown",
	}
}

func TestNextStage_CriticalGapOverridesEveryStage(t *testing.T) {
	info := product.Info{ProductType: "vase", Materials: []string{"clay"}}
	gaps := product.AnalyzeGaps(info)
	for _, s := range append(Stages(), Stage("bogus")) {
		assert.Equal(t, StageBasicInfo, NextStage(s, gaps, info), "from %s", s)
	}
}

func TestNextStage_Progression(t *testing.T) {
	base := criticalComplete()

	withTime := base.Clone()
	withTime.TimeToMake = "3 days"

	withPricing := base.Clone()
	withPricing.Pricing = &product.Pricing{Cost: 40, Currency: "USD"}

	cases := []struct {
		name    string
		current Stage
		info    product.Info
		want    Stage
	}{
		{"intro", StageIntroduction, base, StageBasicInfo},
		{"basic needs time", StageBasicInfo, base, StageMaterialsCrafting},
		{"basic skips crafting", StageBasicInfo, withTime, StageCulturalSignificance},
		{"materials", StageMaterialsCrafting, base, StageCulturalSignificance},
		{"cultural needs pricing", StageCulturalSignificance, base, StagePricingMarket},
		{"cultural skips pricing", StageCulturalSignificance, withPricing, StageFinalDetails},
		{"pricing", StagePricingMarket, base, StageFinalDetails},
		{"final", StageFinalDetails, base, StageSummary},
		{"summary terminal", StageSummary, base, StageSummary},
		{"unknown as intro", Stage("weird"), base, StageBasicInfo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextStage(tc.current, product.AnalyzeGaps(tc.info), tc.info)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextStage_ScenarioAfterFirstUtterance(t *testing.T) {
	info := product.Info{
		ProductType: "ceramic vase",
		Colors:      []string{"blue", "white"},
		Materials:   []string{"clay"},
	}
	gaps := product.AnalyzeGaps(info)
	assert.Equal(t, []string{product.FieldCraftingProcess}, gaps.Critical)
	assert.Equal(t, StageBasicInfo, NextStage(StageIntroduction, gaps, info))
}

func TestParseStage(t *testing.T) {
	assert.Equal(t, StagePricingMarket, ParseStage(" PRICING_MARKET "))
	assert.Equal(t, StageIntroduction, ParseStage(""))
	assert.Equal(t, StageIntroduction, ParseStage("done"))
	assert.True(t, StageSummary.Terminal())
	assert.False(t, StageFinalDetails.Terminal())
}
