package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"listingassist/internal/llm"
	"listingassist/internal/product"
)

// FallbackQuestion is asked when a stage has no templates at all.
const FallbackQuestion = "Can you tell me more about your product?"

// Source tells how a question was produced.
type Source string

const (
	SourceContextual Source = "contextual"
	SourceTemplate   Source = "template"
	SourceFallback   Source = "fallback"
)

// Request carries everything the selector may look at.
type Request struct {
	Stage         Stage
	Info          product.Info
	Gaps          product.Gaps
	LastUtterance string
	Language      string
	// History holds previously asked questions, oldest first.
	History []string
	// Focus, when set, names the field the question must target regardless
	// of stage.
	Focus string
}

type Question struct {
	Text   string
	Source Source
}

// basicInfoPriority orders the fields basic_info asks about first.
var basicInfoPriority = []string{
	product.FieldMaterials,
	product.FieldColors,
	product.FieldDimensions,
}

// Selector produces the next question, preferring a model-written one and
// falling back to the template table.
type Selector struct {
	client     llm.Client
	templates  Templates
	contextual bool
	logger     *log.Logger
}

type SelectorOption func(*Selector)

func WithTemplates(t Templates) SelectorOption {
	return func(s *Selector) {
		if t != nil {
			s.templates = t
		}
	}
}

// WithContextual toggles model-written questions.
func WithContextual(on bool) SelectorOption {
	return func(s *Selector) { s.contextual = on }
}

func WithSelectorLogger(l *log.Logger) SelectorOption {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector builds a selector. A nil client disables contextual questions.
func NewSelector(client llm.Client, opts ...SelectorOption) *Selector {
	s := &Selector{
		client:     client,
		templates:  DefaultTemplates(),
		contextual: true,
		logger:     log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Next always returns a non-empty question.
func (s *Selector) Next(ctx context.Context, req Request) Question {
	req.Stage = ParseStage(string(req.Stage))
	if s.contextual && s.client != nil {
		text, err := s.contextualQuestion(ctx, req)
		if err == nil {
			return Question{Text: text, Source: SourceContextual}
		}
		s.logger.Printf("dialogue: contextual question failed stage=%s err=%v", req.Stage, err)
	}
	return s.Templated(req)
}

// Templated picks a question from the template table without calling the
// model.
func (s *Selector) Templated(req Request) Question {
	if q, ok := s.focused(req); ok {
		return q
	}
	list := s.templates[ParseStage(string(req.Stage))]
	if len(list) == 0 {
		return Question{Text: FallbackQuestion, Source: SourceFallback}
	}

	fresh := make([]Template, 0, len(list))
	for _, t := range list {
		if !t.askedBefore(req.History) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		return s.rendered(list[0], req.Info)
	}
	return s.rendered(preferred(fresh, req), req.Info)
}

// focused returns an unasked question about req.Focus: its confirmation
// template first, then the current stage's templates, then other stages'.
func (s *Selector) focused(req Request) (Question, bool) {
	if req.Focus == "" {
		return Question{}, false
	}
	stage := ParseStage(string(req.Stage))
	var candidates []Template
	if t, ok := confirmTemplates[req.Focus]; ok {
		candidates = append(candidates, t)
	}
	candidates = append(candidates, s.templates[stage]...)
	for _, other := range stages {
		if other != stage {
			candidates = append(candidates, s.templates[other]...)
		}
	}
	for _, t := range candidates {
		if t.Target == req.Focus && !t.askedBefore(req.History) {
			return s.rendered(t, req.Info), true
		}
	}
	return Question{}, false
}

func (s *Selector) rendered(t Template, info product.Info) Question {
	text := strings.TrimSpace(t.Render(info))
	if text == "" {
		return Question{Text: FallbackQuestion, Source: SourceFallback}
	}
	return Question{Text: text, Source: SourceTemplate}
}

// preferred returns the fresh template aimed at the most pressing unknown
// field, or the first fresh template.
func preferred(fresh []Template, req Request) Template {
	unknown := func(field string) bool {
		return req.Gaps.Missing(field) || !req.Info.Has(field)
	}
	if ParseStage(string(req.Stage)) == StageBasicInfo {
		for _, field := range basicInfoPriority {
			if !unknown(field) {
				continue
			}
			for _, t := range fresh {
				if t.Target == field {
					return t
				}
			}
		}
	}
	for _, t := range fresh {
		if t.Target != "" && unknown(t.Target) {
			return t
		}
	}
	return fresh[0]
}

func (s *Selector) contextualQuestion(ctx context.Context, req Request) (string, error) {
	prompt, err := questionPrompt(req)
	if err != nil {
		return "", err
	}
	out, err := s.client.Generate(llm.WithPhase(ctx, "question"), prompt, llm.Options{Temperature: llm.Float32(0.7), MaxTokens: 256})
	if err != nil {
		return "", err
	}
	text := strings.Trim(strings.TrimSpace(out), "\"'` \n")
	if text == "" {
		return "", llm.Malformed(s.client.Name(), llm.ErrEmptyResponse)
	}
	for _, h := range req.History {
		if strings.EqualFold(strings.TrimSpace(h), text) {
			return "", fmt.Errorf("model repeated a previous question")
		}
	}
	return text, nil
}

func questionPrompt(req Request) (string, error) {
	info, err := json.Marshal(req.Info)
	if err != nil {
		return "", err
	}
	gaps, err := json.Marshal(req.Gaps)
	if err != nil {
		return "", err
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	asked := "(none)"
	if len(req.History) > 0 {
		asked = "- " + strings.Join(req.History, "\n- ")
	}

	var b strings.Builder
	b.WriteString("You are helping an artisan describe a handmade product for an online marketplace listing.\n")
	b.WriteString("Ask exactly one short, friendly follow-up question that helps fill the most important missing information.\n")
	b.WriteString("Do not repeat or rephrase a question that was already asked. Reply with the question text only.\n\n")
	fmt.Fprintf(&b, "Language: %s\n", lang)
	fmt.Fprintf(&b, "Conversation stage: %s\n", req.Stage)
	fmt.Fprintf(&b, "Known product information: %s\n", info)
	fmt.Fprintf(&b, "Missing fields: %s\n", gaps)
	if req.Focus != "" {
		fmt.Fprintf(&b, "The question must ask the artisan to confirm or clarify: %s\n", req.Focus)
	}
	fmt.Fprintf(&b, "Artisan's last message: %q\n", req.LastUtterance)
	fmt.Fprintf(&b, "Questions already asked:\n%s\n", asked)
	return b.String(), nil
}
