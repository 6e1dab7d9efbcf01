package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"listingassist/internal/product"
	"listingassist/internal/util/jsonutil"
)

// ValidationError describes one wrong-shaped value in a model reply. It is
// recovered by dropping or defaulting the value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// scoredFields holds the confidence values a reply actually supplied.
type scoredFields map[string]float64

type parsedReply struct {
	Info       product.Info
	Confidence scoredFields
	Issues     []ValidationError
}

// parseReply locates the JSON object in a model reply and validates it into
// a partial Info plus supplied confidence scores. An error means no usable
// JSON object was found.
func parseReply(reply string) (parsedReply, error) {
	raw, err := jsonutil.ExtractObject(reply)
	if err != nil {
		return parsedReply{}, err
	}
	var top map[string]json.RawMessage
	if err := jsonutil.UnmarshalFlex(raw, &top); err != nil {
		return parsedReply{}, fmt.Errorf("decode reply: %w", err)
	}

	out := parsedReply{Confidence: scoredFields{}}
	infoRaw, ok := top["extractedInfo"]
	if !ok {
		infoRaw, ok = top["info"]
	}
	if ok && !isNull(infoRaw) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(infoRaw, &fields); err != nil {
			out.Issues = append(out.Issues, ValidationError{Field: "extractedInfo", Reason: "not an object"})
		} else {
			out.Info = decodeInfo(fields, &out.Issues)
		}
	}
	if confRaw, ok := top["confidence"]; ok && !isNull(confRaw) {
		var scores map[string]json.RawMessage
		if err := json.Unmarshal(confRaw, &scores); err != nil {
			out.Issues = append(out.Issues, ValidationError{Field: "confidence", Reason: "not an object"})
		} else {
			out.Confidence = decodeConfidence(scores, &out.Issues)
		}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func decodeInfo(fields map[string]json.RawMessage, issues *[]ValidationError) product.Info {
	var info product.Info
	for name, raw := range fields {
		if isNull(raw) {
			continue
		}
		switch name {
		case product.FieldProductType:
			info.ProductType = decodeText(name, raw, issues)
		case product.FieldMaterials:
			info.Materials = decodeList(name, raw, issues)
		case product.FieldColors:
			info.Colors = decodeList(name, raw, issues)
		case product.FieldCraftingProcess:
			info.CraftingProcess = decodeText(name, raw, issues)
		case product.FieldDimensions:
			info.Dimensions = decodeDimensions(raw, issues)
		case product.FieldCulturalSignificance:
			info.CulturalSignificance = decodeText(name, raw, issues)
		case product.FieldTimeToMake:
			info.TimeToMake = decodeText(name, raw, issues)
		case product.FieldPricing:
			info.Pricing = decodePricing(raw, issues)
		case product.FieldTargetMarket:
			info.TargetMarket = decodeText(name, raw, issues)
		case product.FieldUniqueFeatures:
			info.UniqueFeatures = decodeList(name, raw, issues)
		case product.FieldCareInstructions:
			info.CareInstructions = decodeText(name, raw, issues)
		case product.FieldCustomizationOptions:
			info.CustomizationOptions = decodeList(name, raw, issues)
		default:
			*issues = append(*issues, ValidationError{Field: name, Reason: "unknown field"})
		}
	}
	return info
}

func decodeText(field string, raw json.RawMessage, issues *[]ValidationError) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		*issues = append(*issues, ValidationError{Field: field, Reason: "expected a string"})
		return ""
	}
	return strings.TrimSpace(s)
}

// decodeList accepts an array of strings or a single string. Non-string
// entries are dropped.
func decodeList(field string, raw json.RawMessage, issues *[]ValidationError) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return product.UnionStrings(nil, []string{single})
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*issues = append(*issues, ValidationError{Field: field, Reason: "expected an array of strings"})
		return nil
	}
	vals := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err != nil {
			*issues = append(*issues, ValidationError{Field: field, Reason: "dropped non-string entry"})
			continue
		}
		vals = append(vals, s)
	}
	return product.UnionStrings(nil, vals)
}

func decodeDimensions(raw json.RawMessage, issues *[]ValidationError) *product.Dimensions {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		*issues = append(*issues, ValidationError{Field: product.FieldDimensions, Reason: "expected an object"})
		return nil
	}
	d := &product.Dimensions{}
	num := func(key string) float64 {
		v, ok := obj[key]
		if !ok || isNull(v) {
			return 0
		}
		f, err := decodeNumber(v)
		if err != nil || f < 0 {
			*issues = append(*issues, ValidationError{Field: product.FieldDimensions + "." + key, Reason: "expected a non-negative number"})
			return 0
		}
		return f
	}
	d.Length = num("length")
	d.Width = num("width")
	d.Height = num("height")
	d.Weight = num("weight")
	if u, ok := obj["unit"]; ok && !isNull(u) {
		d.Unit = decodeText(product.FieldDimensions+".unit", u, issues)
	}
	if d.IsZero() {
		return nil
	}
	return d
}

func decodePricing(raw json.RawMessage, issues *[]ValidationError) *product.Pricing {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		*issues = append(*issues, ValidationError{Field: product.FieldPricing, Reason: "expected an object"})
		return nil
	}
	p := &product.Pricing{}
	if v, ok := obj["cost"]; ok && !isNull(v) {
		f, err := decodeNumber(v)
		if err != nil || f < 0 {
			*issues = append(*issues, ValidationError{Field: product.FieldPricing + ".cost", Reason: "expected a non-negative number"})
		} else {
			p.Cost = f
		}
	}
	if v, ok := obj["currency"]; ok && !isNull(v) {
		p.Currency = strings.ToUpper(decodeText(product.FieldPricing+".currency", v, issues))
	}
	if v, ok := obj["factors"]; ok && !isNull(v) {
		p.Factors = decodeList(product.FieldPricing+".factors", v, issues)
	}
	if p.IsZero() {
		return nil
	}
	return p
}

// decodeNumber accepts JSON numbers and numeric strings such as "12.5".
func decodeNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// decodeConfidence validates supplied scores: non-numeric values become 0,
// out-of-range values are clamped. Unknown keys are ignored.
func decodeConfidence(scores map[string]json.RawMessage, issues *[]ValidationError) scoredFields {
	out := scoredFields{}
	for key, raw := range scores {
		if key != product.OverallKey && !product.IsField(key) {
			continue
		}
		if isNull(raw) {
			*issues = append(*issues, ValidationError{Field: "confidence." + key, Reason: "null score"})
			if key != product.OverallKey {
				out[key] = 0
			}
			continue
		}
		f, err := decodeNumber(raw)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			*issues = append(*issues, ValidationError{Field: "confidence." + key, Reason: "not a number"})
			out[key] = 0
			continue
		}
		if f < 0 || f > 1 {
			*issues = append(*issues, ValidationError{Field: "confidence." + key, Reason: "out of range"})
		}
		out[key] = product.Clamp01(f)
	}
	return out
}
