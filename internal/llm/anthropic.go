package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const jsonOnlySystem = "Respond with a single JSON object only. Do not add prose or code fences."

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	cli   anthropic.Client
	model string
}

func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	return &AnthropicClient{cli: anthropic.NewClient(option.WithAPIKey(apiKey)), model: model}, nil
}

func (a *AnthropicClient) Name() string { return "Anthropic:" + a.model }
func (a *AnthropicClient) Close() error { return nil }

func (a *AnthropicClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(opts.History)+1)
	for _, m := range opts.History {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role == RoleModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	blocks := []anthropic.ContentBlockParamUnion{}
	if opts.Image != nil && len(opts.Image.Data) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(imageMIME(opts.Image), base64.StdEncoding.EncodeToString(opts.Image.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))
	msgs = append(msgs, anthropic.NewUserMessage(blocks...))

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if opts.JSON {
		params.System = []anthropic.TextBlockParam{{Text: jsonOnlySystem}}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*opts.Temperature))
	}

	message, err := a.cli.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			return "", &GenerationError{Provider: a.Name(), Kind: KindQuota, Err: err}
		}
		return "", NewGenerationError(a.Name(), err)
	}
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", Malformed(a.Name(), ErrEmptyResponse)
	}
	return b.String(), nil
}
