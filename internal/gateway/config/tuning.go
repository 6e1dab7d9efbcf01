package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"listingassist/internal/dialogue"
	"listingassist/internal/extraction"
)

// Tuning is the optional conversation.yaml: extraction thresholds, the
// contextual question toggle and per-stage template overrides.
type Tuning struct {
	Extraction          extraction.Config              `yaml:",inline"`
	ContextualQuestions *bool                          `yaml:"contextualQuestions"`
	Templates           map[string][]dialogue.Template `yaml:"templates"`
}

// Contextual reports whether model-written questions are enabled.
func (t Tuning) Contextual() bool {
	return t.ContextualQuestions == nil || *t.ContextualQuestions
}

// QuestionTemplates merges the overrides onto the built-in table.
func (t Tuning) QuestionTemplates() dialogue.Templates {
	overrides := make(map[dialogue.Stage][]dialogue.Template, len(t.Templates))
	for name, list := range t.Templates {
		overrides[dialogue.Stage(strings.TrimSpace(name))] = list
	}
	return dialogue.DefaultTemplates().With(overrides)
}

// LoadTuning reads path. An empty path yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Tuning{Extraction: extraction.DefaultConfig()}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(raw)
}

func ParseTuning(raw []byte) (Tuning, error) {
	out := Tuning{Extraction: extraction.DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := out.validate(); err != nil {
		return Tuning{}, err
	}
	return out, nil
}

func (t Tuning) validate() error {
	for name, value := range map[string]float64{
		"missingThreshold":   t.Extraction.MissingThreshold,
		"requiredThreshold":  t.Extraction.RequiredThreshold,
		"fallbackFieldScore": t.Extraction.FallbackFieldScore,
		"fallbackOverall":    t.Extraction.FallbackOverall,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("tuning: %s must be within [0,1], got %v", name, value)
		}
	}
	if t.Extraction.Timeout < 0 {
		return fmt.Errorf("tuning: extractTimeout must not be negative")
	}
	for name := range t.Templates {
		if !dialogue.Stage(strings.TrimSpace(name)).Valid() {
			return fmt.Errorf("tuning: unknown stage %q", name)
		}
	}
	return t.QuestionTemplates().Validate()
}
