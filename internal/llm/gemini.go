package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	contents := make([]*genai.Content, 0, len(opts.History)+1)
	for _, m := range opts.History {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := "user"
		if m.Role == RoleModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Text}}})
	}
	parts := []*genai.Part{{Text: prompt}}
	if opts.Image != nil && len(opts.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(opts.Image.Data, imageMIME(opts.Image)))
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: parts})

	cfg := &genai.GenerateContentConfig{Temperature: opts.Temperature}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", g.classify(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Malformed(g.Name(), ErrEmptyResponse)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", Malformed(g.Name(), ErrEmptyResponse)
	}
	return b.String(), nil
}

func (g *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return &GenerationError{Provider: g.Name(), Kind: KindQuota, Err: err}
	}
	return NewGenerationError(g.Name(), err)
}

func imageMIME(img *Image) string {
	if img.MIMEType != "" {
		return img.MIMEType
	}
	return "image/jpeg"
}
