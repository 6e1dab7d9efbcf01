package extraction

import (
	"regexp"
	"strings"

	"listingassist/internal/product"
)

var productKeywords = wordSet(
	"vase", "bowl", "plate", "mug", "cup", "basket", "rug", "carpet", "scarf",
	"shawl", "saree", "necklace", "bracelet", "earrings", "ring", "sculpture",
	"painting", "lamp", "box", "bag", "blanket", "quilt", "doll", "toy",
	"candle", "jewelry", "pottery", "textile", "tapestry", "mask",
)

var materialKeywords = wordSet(
	"clay", "ceramic", "wood", "bamboo", "cotton", "silk", "wool", "jute",
	"leather", "metal", "brass", "copper", "silver", "gold", "glass", "stone",
	"marble", "terracotta", "porcelain", "glaze", "paper", "beads", "resin",
	"iron",
)

var colorKeywords = wordSet(
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "white",
	"black", "brown", "gray", "grey", "beige", "maroon", "turquoise", "indigo",
	"ochre",
)

var wordRe = regexp.MustCompile(`\p{L}+`)

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// lookup matches w against set, also trying a trailing-s singular.
func lookup(set map[string]struct{}, w string) (string, bool) {
	if _, ok := set[w]; ok {
		return w, true
	}
	if s := strings.TrimSuffix(w, "s"); s != w {
		if _, ok := set[s]; ok {
			return s, true
		}
	}
	return "", false
}

// scanKeywords fills productType, materials and colors from whole-word
// keyword matches in text order. The first product noun wins.
func scanKeywords(text string) product.Info {
	var info product.Info
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if info.ProductType == "" {
			if kw, ok := lookup(productKeywords, w); ok {
				info.ProductType = kw
			}
		}
		if kw, ok := lookup(materialKeywords, w); ok {
			info.Materials = product.UnionStrings(info.Materials, []string{kw})
		}
		if kw, ok := lookup(colorKeywords, w); ok {
			info.Colors = product.UnionStrings(info.Colors, []string{kw})
		}
	}
	return info
}
