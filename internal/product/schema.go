package product

// Tier is one of the three completeness classes of a field.
type Tier string

const (
	TierCritical   Tier = "critical"
	TierImportant  Tier = "important"
	TierNiceToHave Tier = "nice_to_have"
)

type fieldDef struct {
	name  string
	tier  Tier
	array bool
}

// schema lists every tracked field in declaration order. Gap lists and the
// confidence mean both follow this order.
var schema = []fieldDef{
	{name: FieldProductType, tier: TierCritical},
	{name: FieldMaterials, tier: TierCritical, array: true},
	{name: FieldColors, tier: TierCritical, array: true},
	{name: FieldCraftingProcess, tier: TierCritical},
	{name: FieldDimensions, tier: TierImportant},
	{name: FieldCulturalSignificance, tier: TierNiceToHave},
	{name: FieldTimeToMake, tier: TierImportant},
	{name: FieldPricing, tier: TierImportant},
	{name: FieldTargetMarket, tier: TierNiceToHave},
	{name: FieldUniqueFeatures, tier: TierImportant, array: true},
	{name: FieldCareInstructions, tier: TierNiceToHave},
	{name: FieldCustomizationOptions, tier: TierNiceToHave, array: true},
}

// Fields returns all twelve field names in declaration order.
func Fields() []string {
	out := make([]string, 0, len(schema))
	for _, f := range schema {
		out = append(out, f.name)
	}
	return out
}

// FieldsInTier returns the fields of one tier in declaration order.
func FieldsInTier(t Tier) []string {
	var out []string
	for _, f := range schema {
		if f.tier == t {
			out = append(out, f.name)
		}
	}
	return out
}

func Critical() []string   { return FieldsInTier(TierCritical) }
func Important() []string  { return FieldsInTier(TierImportant) }
func NiceToHave() []string { return FieldsInTier(TierNiceToHave) }

// TierOf returns the tier of field and false for unknown names.
func TierOf(field string) (Tier, bool) {
	for _, f := range schema {
		if f.name == field {
			return f.tier, true
		}
	}
	return "", false
}

// IsArrayField reports whether field holds a list of strings.
func IsArrayField(field string) bool {
	for _, f := range schema {
		if f.name == field {
			return f.array
		}
	}
	return false
}

// IsField reports whether name is one of the tracked fields.
func IsField(name string) bool {
	_, ok := TierOf(name)
	return ok
}
