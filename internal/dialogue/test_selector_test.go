package dialogue

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingassist/internal/llm"
	"listingassist/internal/product"
)

var quiet = log.New(io.Discard, "", 0)

func basicInfoRequest(history ...string) Request {
	info := product.Info{ProductType: "vase"}
	return Request{
		Stage:   StageBasicInfo,
		Info:    info,
		Gaps:    product.AnalyzeGaps(info),
		History: history,
	}
}

func TestTemplated_PrefersMaterialsThenColors(t *testing.T) {
	s := NewSelector(nil, WithSelectorLogger(quiet))

	first := s.Templated(basicInfoRequest())
	assert.Equal(t, SourceTemplate, first.Source)
	assert.Equal(t, "What materials did you use to make your vase?", first.Text)

	info := product.Info{ProductType: "vase", Materials: []string{"clay"}}
	second := s.Templated(Request{Stage: StageBasicInfo, Info: info, Gaps: product.AnalyzeGaps(info)})
	assert.Equal(t, "What colors does your vase come in?", second.Text)
}

func TestTemplated_DoesNotRepeat(t *testing.T) {
	s := NewSelector(nil)

	first := s.Templated(basicInfoRequest())
	second := s.Templated(basicInfoRequest(first.Text))
	assert.NotEqual(t, first.Text, second.Text)
	assert.Equal(t, "What colors does your vase come in?", second.Text)
}

func TestTemplated_RepeatDetectedAcrossSubstitutions(t *testing.T) {
	s := NewSelector(nil)
	// Asked while the product type was still unknown.
	asked := "What materials did you use to make your product?"
	q := s.Templated(basicInfoRequest(asked))
	assert.NotContains(t, q.Text, "What materials")
}

func TestTemplated_ExhaustedReusesFirst(t *testing.T) {
	s := NewSelector(nil)
	var history []string
	for _, tpl := range DefaultTemplates()[StageBasicInfo] {
		history = append(history, tpl.Render(product.Info{ProductType: "vase"}))
	}
	q := s.Templated(basicInfoRequest(history...))
	assert.Equal(t, "What materials did you use to make your vase?", q.Text)
}

func TestTemplated_FocusAsksAboutWeakField(t *testing.T) {
	s := NewSelector(nil)
	info := product.Info{ProductType: "mug", Materials: []string{"clay"}, Colors: []string{"blue"}, CraftingProcess: "thrown"}
	req := Request{Stage: StageFinalDetails, Info: info, Gaps: product.AnalyzeGaps(info), Focus: product.FieldMaterials}

	first := s.Templated(req)
	assert.Equal(t, "Could you confirm the main materials of your mug?", first.Text)

	req.History = []string{first.Text}
	second := s.Templated(req)
	assert.Equal(t, "What materials did you use to make your mug?", second.Text)

	req.History = append(req.History, second.Text)
	third := s.Templated(req)
	assert.Equal(t, "How should buyers care for their mug?", third.Text)
}

func TestTemplated_NoTemplatesUsesFallback(t *testing.T) {
	s := NewSelector(nil, WithTemplates(Templates{}))
	q := s.Templated(Request{Stage: StageFinalDetails})
	assert.Equal(t, FallbackQuestion, q.Text)
	assert.Equal(t, SourceFallback, q.Source)
}

func TestTemplated_PlaceholderDefaults(t *testing.T) {
	s := NewSelector(nil)
	q := s.Templated(Request{Stage: StageBasicInfo})
	assert.Equal(t, "What materials did you use to make your product?", q.Text)
}

func TestNext_UsesContextualQuestion(t *testing.T) {
	fake := llm.NewScriptedClient().On("question", llm.Text("  \"What glaze did you use on the vase?\"\n"))
	s := NewSelector(fake, WithSelectorLogger(quiet))

	q := s.Next(context.Background(), basicInfoRequest())
	assert.Equal(t, SourceContextual, q.Source)
	assert.Equal(t, "What glaze did you use on the vase?", q.Text)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Conversation stage: basic_info")
}

func TestNext_FallsBackOnModelFailure(t *testing.T) {
	fake := llm.NewScriptedClient().On("question", llm.Fail(errors.New("unavailable")))
	s := NewSelector(fake, WithSelectorLogger(quiet))

	q := s.Next(context.Background(), basicInfoRequest())
	assert.Equal(t, SourceTemplate, q.Source)
	assert.NotEmpty(t, q.Text)
}

func TestNext_FallsBackWhenModelRepeats(t *testing.T) {
	asked := "What glaze did you use?"
	fake := llm.NewScriptedClient().On("question", llm.Text(asked))
	s := NewSelector(fake, WithSelectorLogger(quiet))

	q := s.Next(context.Background(), basicInfoRequest(asked))
	assert.Equal(t, SourceTemplate, q.Source)
}

func TestNext_ContextualDisabled(t *testing.T) {
	fake := llm.NewScriptedClient().On("question", llm.Text("Unused?"))
	s := NewSelector(fake, WithContextual(false))

	q := s.Next(context.Background(), basicInfoRequest())
	assert.Equal(t, SourceTemplate, q.Source)
	assert.Empty(t, fake.Calls())
}

func TestTemplates_WithOverridesAndValidate(t *testing.T) {
	custom := DefaultTemplates().With(map[Stage][]Template{
		StageFinalDetails: {{Text: "Anything to add about your {productType}?"}},
	})
	require.NoError(t, custom.Validate())
	assert.Len(t, custom[StageFinalDetails], 1)
	assert.Len(t, DefaultTemplates()[StageFinalDetails], 3)

	bad := Templates{StageSummary: {{Text: "x", Target: "nope"}}}
	assert.Error(t, bad.Validate())
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", joinList(nil))
	assert.Equal(t, "blue", joinList([]string{"blue"}))
	assert.Equal(t, "blue and white", joinList([]string{"blue", "white"}))
	assert.Equal(t, "red, blue and white", joinList([]string{"red", "blue", "white"}))
}
