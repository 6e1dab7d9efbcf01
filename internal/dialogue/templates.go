package dialogue

import (
	"fmt"
	"regexp"
	"strings"

	"listingassist/internal/product"
)

// Template is a question with {placeholder} tokens. Target names the field
// the question is meant to fill, empty for open questions.
type Template struct {
	Text   string `yaml:"text" json:"text"`
	Target string `yaml:"target" json:"target,omitempty"`
}

// Templates maps each stage to its ordered candidate questions.
type Templates map[Stage][]Template

var defaultTemplates = Templates{
	StageIntroduction: {
		{Text: "Hello! I'm here to help you create a listing for your handmade product. What have you made?", Target: product.FieldProductType},
		{Text: "Welcome! Tell me about the product you would like to sell.", Target: product.FieldProductType},
	},
	StageBasicInfo: {
		{Text: "What materials did you use to make your {productType}?", Target: product.FieldMaterials},
		{Text: "What colors does your {productType} come in?", Target: product.FieldColors},
		{Text: "How big is your {productType}? Length, width, height and weight all help buyers.", Target: product.FieldDimensions},
		{Text: "How do you make your {productType}? Please describe the process step by step.", Target: product.FieldCraftingProcess},
		{Text: "What kind of product is it? For example a vase, a scarf or a basket.", Target: product.FieldProductType},
	},
	StageMaterialsCrafting: {
		{Text: "How long does it take you to make one {productType}?", Target: product.FieldTimeToMake},
		{Text: "Which techniques do you use when working with {materials}?", Target: product.FieldCraftingProcess},
		{Text: "What makes your {productType} different from similar items?", Target: product.FieldUniqueFeatures},
	},
	StageCulturalSignificance: {
		{Text: "Is there a tradition or story behind your {productType}?", Target: product.FieldCulturalSignificance},
		{Text: "Which region or community does this craft come from?", Target: product.FieldCulturalSignificance},
		{Text: "Do the {colors} colors or the patterns carry any special meaning?", Target: product.FieldCulturalSignificance},
	},
	StagePricingMarket: {
		{Text: "What price would you like to ask for your {productType}?", Target: product.FieldPricing},
		{Text: "Which costs go into each piece, such as {materials} and your time?", Target: product.FieldPricing},
		{Text: "Who do you picture buying your {productType}?", Target: product.FieldTargetMarket},
	},
	StageFinalDetails: {
		{Text: "How should buyers care for their {productType}?", Target: product.FieldCareInstructions},
		{Text: "Can you customize your {productType}, for example in size or color?", Target: product.FieldCustomizationOptions},
		{Text: "Is there anything else buyers should know about your {productType}?", Target: product.FieldUniqueFeatures},
	},
	StageSummary: {
		{Text: "Thank you! I have everything I need to prepare your {productType} listing."},
	},
}

// confirmTemplates re-ask a critical field whose value is known but not
// trusted yet.
var confirmTemplates = map[string]Template{
	product.FieldProductType:     {Text: "Just so I describe it correctly, what exactly is the product you made?", Target: product.FieldProductType},
	product.FieldMaterials:       {Text: "Could you confirm the main materials of your {productType}?", Target: product.FieldMaterials},
	product.FieldColors:          {Text: "Could you confirm which colors your {productType} comes in?", Target: product.FieldColors},
	product.FieldCraftingProcess: {Text: "Could you describe once more how you make your {productType}?", Target: product.FieldCraftingProcess},
}

// DefaultTemplates returns a copy of the built-in question table.
func DefaultTemplates() Templates {
	return defaultTemplates.With(nil)
}

// With returns a copy of t where every stage present in overrides replaces
// the built-in list. Empty override lists are ignored.
func (t Templates) With(overrides map[Stage][]Template) Templates {
	out := make(Templates, len(t))
	for stage, list := range t {
		out[stage] = append([]Template(nil), list...)
	}
	for stage, list := range overrides {
		if len(list) == 0 {
			continue
		}
		out[ParseStage(string(stage))] = append([]Template(nil), list...)
	}
	return out
}

// Validate reports templates with blank text or unknown targets.
func (t Templates) Validate() error {
	for stage, list := range t {
		for i, tpl := range list {
			if strings.TrimSpace(tpl.Text) == "" {
				return fmt.Errorf("template %s[%d]: text is required", stage, i)
			}
			if tpl.Target != "" && !product.IsField(tpl.Target) {
				return fmt.Errorf("template %s[%d]: unknown target %q", stage, i, tpl.Target)
			}
		}
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z]+)\}`)

// placeholderDefaults stand in for fields that are still unknown.
var placeholderDefaults = map[string]string{
	product.FieldProductType:          "product",
	product.FieldMaterials:            "your materials",
	product.FieldColors:               "chosen",
	product.FieldCraftingProcess:      "your process",
	product.FieldTimeToMake:           "the time it takes",
	product.FieldCulturalSignificance: "its story",
	product.FieldTargetMarket:         "your buyers",
}

// Render substitutes known info values into the template's placeholders.
func (t Template) Render(info product.Info) string {
	return placeholderRe.ReplaceAllStringFunc(t.Text, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v := fieldText(info, name); v != "" {
			return v
		}
		if v, ok := placeholderDefaults[name]; ok {
			return v
		}
		return "it"
	})
}

func fieldText(info product.Info, name string) string {
	switch name {
	case product.FieldProductType:
		return strings.TrimSpace(info.ProductType)
	case product.FieldMaterials:
		return joinList(info.Materials)
	case product.FieldColors:
		return joinList(info.Colors)
	case product.FieldCraftingProcess:
		return strings.TrimSpace(info.CraftingProcess)
	case product.FieldTimeToMake:
		return strings.TrimSpace(info.TimeToMake)
	case product.FieldCulturalSignificance:
		return strings.TrimSpace(info.CulturalSignificance)
	case product.FieldTargetMarket:
		return strings.TrimSpace(info.TargetMarket)
	case product.FieldCareInstructions:
		return strings.TrimSpace(info.CareInstructions)
	case product.FieldUniqueFeatures:
		return joinList(info.UniqueFeatures)
	case product.FieldCustomizationOptions:
		return joinList(info.CustomizationOptions)
	}
	return ""
}

// joinList renders "a", "a and b", "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// leadingClause returns the lowercased text before the first clause
// delimiter, with placeholders left in place.
func leadingClause(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, ",.?!:;"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// clauseMatcher matches asked questions that share the template's leading
// clause, with any substituted value in place of each placeholder.
func (t Template) clauseMatcher() *regexp.Regexp {
	clause := leadingClause(t.Text)
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(clause, -1) {
		b.WriteString(regexp.QuoteMeta(clause[last:loc[0]]))
		b.WriteString(".+?")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(clause[last:]))
	return regexp.MustCompile(b.String())
}

// askedBefore reports whether any entry of history repeats t's leading clause.
func (t Template) askedBefore(history []string) bool {
	if len(history) == 0 {
		return false
	}
	re := t.clauseMatcher()
	for _, h := range history {
		if re.MatchString(strings.ToLower(strings.TrimSpace(h))) {
			return true
		}
	}
	return false
}
