package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsDeclarationOrder(t *testing.T) {
	assert.Equal(t, []string{
		"productType", "materials", "colors", "craftingProcess",
		"dimensions", "culturalSignificance", "timeToMake", "pricing",
		"targetMarket", "uniqueFeatures", "careInstructions", "customizationOptions",
	}, Fields())
}

func TestTiers(t *testing.T) {
	assert.Equal(t, []string{"productType", "materials", "colors", "craftingProcess"}, Critical())
	assert.Equal(t, []string{"dimensions", "timeToMake", "pricing", "uniqueFeatures"}, Important())
	assert.Equal(t, []string{"culturalSignificance", "targetMarket", "careInstructions", "customizationOptions"}, NiceToHave())

	tier, ok := TierOf(FieldPricing)
	assert.True(t, ok)
	assert.Equal(t, TierImportant, tier)

	_, ok = TierOf("price")
	assert.False(t, ok)
	assert.False(t, IsField("overall"))
}

func TestIsArrayField(t *testing.T) {
	for _, f := range []string{FieldMaterials, FieldColors, FieldUniqueFeatures, FieldCustomizationOptions} {
		assert.True(t, IsArrayField(f), f)
	}
	assert.False(t, IsArrayField(FieldProductType))
	assert.False(t, IsArrayField(FieldDimensions))
}
