package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeArrayUnionKeepsFirstSeenOrder(t *testing.T) {
	info := Merge(Info{}, Info{Materials: []string{"clay", "glaze"}})
	info = Merge(info, Info{Materials: []string{"glaze", "wood"}})

	assert.Equal(t, []string{"clay", "glaze", "wood"}, info.Materials)
}

func TestMergeArrayUnionIgnoresCaseAndBlanks(t *testing.T) {
	info := Merge(Info{Colors: []string{"Blue"}}, Info{Colors: []string{" blue ", "", "white", "WHITE"}})

	assert.Equal(t, []string{"Blue", "white"}, info.Colors)
}

func TestMergeIsIdempotent(t *testing.T) {
	prior := Info{
		ProductType: "vase",
		Materials:   []string{"clay"},
		Pricing:     &Pricing{Cost: 20, Currency: "USD", Factors: []string{"materials"}},
	}
	update := Info{
		ProductType:     "ceramic vase",
		Materials:       []string{"clay", "glaze"},
		CraftingProcess: "wheel thrown",
		Dimensions:      &Dimensions{Height: 30, Unit: "cm"},
		Pricing:         &Pricing{Factors: []string{"labor"}},
	}

	once := Merge(prior, update)
	twice := Merge(once, update)

	assert.Equal(t, once, twice)
}

func TestMergeScalarOverrideOnlyWhenNonEmpty(t *testing.T) {
	prior := Info{ProductType: "vase", CraftingProcess: "wheel thrown"}

	got := Merge(prior, Info{ProductType: "   ", CraftingProcess: "hand built"})

	assert.Equal(t, "vase", got.ProductType)
	assert.Equal(t, "hand built", got.CraftingProcess)
}

func TestMergeNeverUnsets(t *testing.T) {
	prior := Info{
		ProductType: "rug",
		Colors:      []string{"red"},
		Dimensions:  &Dimensions{Length: 120, Width: 80, Unit: "cm"},
		Pricing:     &Pricing{Cost: 90, Currency: "EUR"},
	}

	got := Merge(prior, Info{})

	for _, f := range Fields() {
		if prior.Has(f) {
			assert.True(t, got.Has(f), "field %s was unset", f)
		}
	}
}

func TestMergeNestedObjectsFieldByField(t *testing.T) {
	prior := Info{Dimensions: &Dimensions{Length: 10, Width: 5, Unit: "cm"}}

	got := Merge(prior, Info{Dimensions: &Dimensions{Height: 7, Weight: 0.4}})

	require.NotNil(t, got.Dimensions)
	assert.Equal(t, Dimensions{Length: 10, Width: 5, Height: 7, Weight: 0.4, Unit: "cm"}, *got.Dimensions)
	assert.Equal(t, 0.0, prior.Dimensions.Height, "prior must not be mutated")
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	update := Info{Materials: []string{"silk"}}
	got := Merge(Info{}, update)
	got.Materials[0] = "cotton"

	assert.Equal(t, "silk", update.Materials[0])
}
