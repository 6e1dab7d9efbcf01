package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

const extractionInstructions = `You extract structured product information for a handmade-product marketplace listing.
Given the information already known and the artisan's latest message, return ONLY fields that are new or updated by the message.

Reply with one JSON object and nothing else:
{
  "extractedInfo": {
    "productType": string,
    "materials": [string],
    "colors": [string],
    "craftingProcess": string,
    "dimensions": {"length": number, "width": number, "height": number, "weight": number, "unit": string},
    "culturalSignificance": string,
    "timeToMake": string,
    "pricing": {"cost": number, "currency": string, "factors": [string]},
    "targetMarket": string,
    "uniqueFeatures": [string],
    "careInstructions": string,
    "customizationOptions": [string]
  },
  "confidence": {"<field>": number between 0 and 1, "overall": number between 0 and 1}
}

Rules:
- Omit fields the message says nothing about. Never invent values.
- Give a confidence score for every field you return.
- Keep values in the artisan's language.`

func extractionPrompt(req Request) (string, error) {
	known, err := json.Marshal(req.Prior)
	if err != nil {
		return "", fmt.Errorf("marshal prior info: %w", err)
	}
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = "en"
	}
	var b strings.Builder
	b.WriteString(extractionInstructions)
	fmt.Fprintf(&b, "\n\n[LANGUAGE]\n%s\n", lang)
	fmt.Fprintf(&b, "\n[KNOWN INFO JSON]\n%s\n", known)
	fmt.Fprintf(&b, "\n[ARTISAN MESSAGE]\n%s\n", strings.TrimSpace(req.Utterance))
	if req.Image != nil {
		b.WriteString("\nA photo of the product is attached; use it for colors, materials and dimensions hints.\n")
	}
	return b.String(), nil
}
