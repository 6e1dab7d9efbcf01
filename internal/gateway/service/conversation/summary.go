package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"listingassist/internal/llm"
	"listingassist/internal/product"
)

const summaryPrompt = `Write a warm, factual marketplace listing summary (3 to 5 sentences) for the handmade product below.
Use only the information given. Do not invent prices, sizes or origins. Reply with the summary text only.`

// summarize asks the model for a listing summary and falls back to a
// summary rendered from the known fields.
func (s *Service) summarize(ctx context.Context, info product.Info, language string) string {
	if s.llm != nil {
		raw, err := json.Marshal(info)
		if err == nil {
			prompt := fmt.Sprintf("%s\n\n[LANGUAGE]\n%s\n\n[PRODUCT JSON]\n%s\n", summaryPrompt, language, raw)
			out, err := s.llm.Generate(llm.WithPhase(ctx, "summary"), prompt, llm.Options{Temperature: llm.Float32(0.4), MaxTokens: 512})
			if err == nil && strings.TrimSpace(out) != "" {
				return strings.TrimSpace(out)
			}
			s.logger.Printf("conversation: summary fallback err=%v", err)
		}
	}
	return renderSummary(info)
}

// renderSummary builds a plain summary from whatever fields are present.
func renderSummary(info product.Info) string {
	first := "A handmade product"
	if name := strings.TrimSpace(info.ProductType); name != "" {
		first = "A handmade " + name
	}
	var sentences []string

	if len(info.Materials) > 0 {
		first += " made from " + joinList(info.Materials)
	}
	if len(info.Colors) > 0 {
		first += " in " + joinList(info.Colors)
	}
	sentences = append(sentences, first+".")

	if v := strings.TrimSpace(info.CraftingProcess); v != "" {
		sentences = append(sentences, "Crafting process: "+sentence(v))
	}
	if v := strings.TrimSpace(info.TimeToMake); v != "" {
		sentences = append(sentences, "Each piece takes "+sentence(v))
	}
	if v := strings.TrimSpace(info.CulturalSignificance); v != "" {
		sentences = append(sentences, "Cultural significance: "+sentence(v))
	}
	if len(info.UniqueFeatures) > 0 {
		sentences = append(sentences, "Unique features: "+joinList(info.UniqueFeatures)+".")
	}
	if d := info.Dimensions; !d.IsZero() {
		if dims := formatDimensions(d); dims != "" {
			sentences = append(sentences, "Dimensions: "+dims+".")
		}
	}
	if p := info.Pricing; !p.IsZero() && p.Cost > 0 {
		sentences = append(sentences, "Price: "+strings.TrimSpace(strconv.FormatFloat(p.Cost, 'f', -1, 64)+" "+p.Currency)+".")
	}
	if v := strings.TrimSpace(info.TargetMarket); v != "" {
		sentences = append(sentences, "Ideal for "+sentence(v))
	}
	if v := strings.TrimSpace(info.CareInstructions); v != "" {
		sentences = append(sentences, "Care: "+sentence(v))
	}
	if len(info.CustomizationOptions) > 0 {
		sentences = append(sentences, "Customization: "+joinList(info.CustomizationOptions)+".")
	}
	return strings.Join(sentences, " ")
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

func formatDimensions(d *product.Dimensions) string {
	var parts []string
	add := func(label string, v float64) {
		if v > 0 {
			parts = append(parts, label+" "+strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	add("length", d.Length)
	add("width", d.Width)
	add("height", d.Height)
	out := strings.Join(parts, ", ")
	if out != "" && d.Unit != "" {
		out += " " + d.Unit
	}
	if d.Weight > 0 {
		if out != "" {
			out += ", "
		}
		out += "weight " + strconv.FormatFloat(d.Weight, 'f', -1, 64)
	}
	return out
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
