package product

import "strings"

// Field names as they appear on the wire and in confidence maps.
const (
	FieldProductType          = "productType"
	FieldMaterials            = "materials"
	FieldColors               = "colors"
	FieldCraftingProcess      = "craftingProcess"
	FieldDimensions           = "dimensions"
	FieldCulturalSignificance = "culturalSignificance"
	FieldTimeToMake           = "timeToMake"
	FieldPricing              = "pricing"
	FieldTargetMarket         = "targetMarket"
	FieldUniqueFeatures       = "uniqueFeatures"
	FieldCareInstructions     = "careInstructions"
	FieldCustomizationOptions = "customizationOptions"
)

// Info is the accumulating structured record of one artisan product.
type Info struct {
	ProductType          string      `json:"productType,omitempty"`
	Materials            []string    `json:"materials,omitempty"`
	Colors               []string    `json:"colors,omitempty"`
	CraftingProcess      string      `json:"craftingProcess,omitempty"`
	Dimensions           *Dimensions `json:"dimensions,omitempty"`
	CulturalSignificance string      `json:"culturalSignificance,omitempty"`
	TimeToMake           string      `json:"timeToMake,omitempty"`
	Pricing              *Pricing    `json:"pricing,omitempty"`
	TargetMarket         string      `json:"targetMarket,omitempty"`
	UniqueFeatures       []string    `json:"uniqueFeatures,omitempty"`
	CareInstructions     string      `json:"careInstructions,omitempty"`
	CustomizationOptions []string    `json:"customizationOptions,omitempty"`
}

type Dimensions struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

func (d *Dimensions) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Length == 0 && d.Width == 0 && d.Height == 0 && d.Weight == 0 && strings.TrimSpace(d.Unit) == ""
}

type Pricing struct {
	Cost     float64  `json:"cost,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Factors  []string `json:"factors,omitempty"`
}

func (p *Pricing) IsZero() bool {
	if p == nil {
		return true
	}
	return p.Cost == 0 && strings.TrimSpace(p.Currency) == "" && len(p.Factors) == 0
}

// Has reports whether field carries a meaningful value: a non-blank string,
// a non-empty array or a non-zero object. Unknown field names report false.
func (i Info) Has(field string) bool {
	switch field {
	case FieldProductType:
		return hasText(i.ProductType)
	case FieldMaterials:
		return len(i.Materials) > 0
	case FieldColors:
		return len(i.Colors) > 0
	case FieldCraftingProcess:
		return hasText(i.CraftingProcess)
	case FieldDimensions:
		return !i.Dimensions.IsZero()
	case FieldCulturalSignificance:
		return hasText(i.CulturalSignificance)
	case FieldTimeToMake:
		return hasText(i.TimeToMake)
	case FieldPricing:
		return !i.Pricing.IsZero()
	case FieldTargetMarket:
		return hasText(i.TargetMarket)
	case FieldUniqueFeatures:
		return len(i.UniqueFeatures) > 0
	case FieldCareInstructions:
		return hasText(i.CareInstructions)
	case FieldCustomizationOptions:
		return len(i.CustomizationOptions) > 0
	}
	return false
}

// Clone returns a deep copy so callers can mutate the result freely.
func (i Info) Clone() Info {
	out := i
	out.Materials = cloneStrings(i.Materials)
	out.Colors = cloneStrings(i.Colors)
	out.UniqueFeatures = cloneStrings(i.UniqueFeatures)
	out.CustomizationOptions = cloneStrings(i.CustomizationOptions)
	if i.Dimensions != nil {
		d := *i.Dimensions
		out.Dimensions = &d
	}
	if i.Pricing != nil {
		p := *i.Pricing
		p.Factors = cloneStrings(i.Pricing.Factors)
		out.Pricing = &p
	}
	return out
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
