// Package extraction turns free-text artisan replies into structured product
// information with per-field confidence. Model failures never escape: the
// extractor degrades to keyword matching instead.
package extraction

import (
	"context"
	"log"
	"strings"
	"time"

	"listingassist/internal/llm"
	"listingassist/internal/product"
)

// Config holds the extractor thresholds.
type Config struct {
	Timeout            time.Duration `yaml:"extractTimeout"`
	MissingThreshold   float64       `yaml:"missingThreshold"`
	RequiredThreshold  float64       `yaml:"requiredThreshold"`
	FallbackFieldScore float64       `yaml:"fallbackFieldScore"`
	FallbackOverall    float64       `yaml:"fallbackOverall"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:            20 * time.Second,
		MissingThreshold:   0.3,
		RequiredThreshold:  0.5,
		FallbackFieldScore: 0.3,
		FallbackOverall:    0.2,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MissingThreshold <= 0 {
		c.MissingThreshold = d.MissingThreshold
	}
	if c.RequiredThreshold <= 0 {
		c.RequiredThreshold = d.RequiredThreshold
	}
	if c.FallbackFieldScore <= 0 {
		c.FallbackFieldScore = d.FallbackFieldScore
	}
	if c.FallbackOverall <= 0 {
		c.FallbackOverall = d.FallbackOverall
	}
	return c
}

// fallbackMissing is reported whenever the keyword fallback runs.
var fallbackMissing = []string{
	product.FieldCraftingProcess,
	product.FieldDimensions,
	product.FieldCulturalSignificance,
	product.FieldTimeToMake,
	product.FieldPricing,
}

type Request struct {
	Prior           product.Info
	PriorConfidence product.ConfidenceMap
	Utterance       string
	// PriorUtterances are the artisan's earlier replies, oldest first.
	PriorUtterances []string
	Language        string
	Image           *llm.Image
}

type Result struct {
	Info             product.Info
	Confidence       product.ConfidenceMap
	MissingFields    []string
	RequiredComplete bool
	// Degraded is set when the keyword fallback produced the result.
	Degraded bool
	Issues   []ValidationError
}

type Extractor struct {
	client llm.Client
	cfg    Config
	logger *log.Logger
}

// New builds an extractor. A nil client always uses the keyword fallback.
func New(client llm.Client, cfg Config, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{client: client, cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the thresholds in effect, defaults filled in.
func (e *Extractor) Config() Config { return e.cfg }

// Extract merges what the utterance adds to req.Prior. It never fails.
func (e *Extractor) Extract(ctx context.Context, req Request) Result {
	if e.client == nil {
		return e.fallback(req, "no model client")
	}
	prompt, err := extractionPrompt(req)
	if err != nil {
		return e.fallback(req, err.Error())
	}

	callCtx, cancel := context.WithTimeout(llm.WithPhase(ctx, "extract"), e.cfg.Timeout)
	defer cancel()
	reply, err := e.client.Generate(callCtx, prompt, llm.Options{
		JSON:        true,
		Temperature: llm.Float32(0.1),
		Image:       req.Image,
	})
	if err != nil {
		return e.fallback(req, err.Error())
	}

	parsed, err := parseReply(reply)
	if err != nil {
		return e.fallback(req, err.Error())
	}
	for _, issue := range parsed.Issues {
		e.logger.Printf("extraction: validation field=%s reason=%s", issue.Field, issue.Reason)
	}

	info := product.Merge(req.Prior, parsed.Info)
	conf := combineConfidence(req.PriorConfidence, parsed.Confidence)
	return Result{
		Info:             info,
		Confidence:       conf,
		MissingFields:    product.MissingFields(conf, e.cfg.MissingThreshold),
		RequiredComplete: product.RequiredComplete(info, conf, e.cfg.RequiredThreshold),
		Issues:           parsed.Issues,
	}
}

// combineConfidence keeps the higher of prior and supplied per field. The
// overall score is the supplied one when valid, else the field mean.
func combineConfidence(prior product.ConfidenceMap, supplied scoredFields) product.ConfidenceMap {
	out := product.NewConfidenceMap()
	for _, f := range product.Fields() {
		v := prior.Score(f)
		if s, ok := supplied[f]; ok && s > v {
			v = s
		}
		out[f] = v
	}
	if v, ok := supplied[product.OverallKey]; ok {
		out[product.OverallKey] = product.Clamp01(v)
	} else {
		out[product.OverallKey] = product.MeanScore(out)
	}
	return out
}

func (e *Extractor) fallback(req Request, reason string) Result {
	e.logger.Printf("extraction: keyword fallback reason=%q", truncate(reason, 200))

	corpus := append(append([]string{}, req.PriorUtterances...), req.Utterance)
	found := scanKeywords(strings.Join(corpus, " "))

	conf := product.NewConfidenceMap()
	if found.ProductType != "" {
		conf[product.FieldProductType] = e.cfg.FallbackFieldScore
	}
	if len(found.Materials) > 0 {
		conf[product.FieldMaterials] = e.cfg.FallbackFieldScore
	}
	if len(found.Colors) > 0 {
		conf[product.FieldColors] = e.cfg.FallbackFieldScore
	}
	conf[product.OverallKey] = e.cfg.FallbackOverall

	return Result{
		Info:             product.Merge(req.Prior, found),
		Confidence:       conf,
		MissingFields:    append([]string(nil), fallbackMissing...),
		RequiredComplete: false,
		Degraded:         true,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
