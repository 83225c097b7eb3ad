package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ContentEnhancer = (*OpenAIEnhancer)(nil)

const enhanceSystemPrompt = `You write marketing copy for small-business websites.
Given a site name and a brief, respond with ONLY a JSON object of the form
{"headline": "...", "tagline": "...", "about": "..."}.
The headline is at most 8 words, the tagline at most 15, the about section
two short paragraphs. No markdown, no commentary.`

// OpenAIEnhancer produces site copy through the Chat Completions API.
type OpenAIEnhancer struct {
	client openai.Client
	model  string
}

func NewOpenAIEnhancer(apiKey, model string) (*OpenAIEnhancer, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIEnhancer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIEnhancer) Name() string { return "openai" }

func (o *OpenAIEnhancer) Enhance(ctx context.Context, siteName, brief string) (adapter.SiteCopy, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(enhanceSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Site name: %s\nBrief: %s", siteName, brief)),
		},
	})
	if err != nil {
		return adapter.SiteCopy{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return adapter.SiteCopy{}, errors.New("openai: empty response")
	}
	return parseSiteCopy(resp.Choices[0].Message.Content)
}

// parseSiteCopy tolerates the model wrapping its JSON in a code fence.
func parseSiteCopy(raw string) (adapter.SiteCopy, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var c adapter.SiteCopy
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &c); err != nil {
		return adapter.SiteCopy{}, fmt.Errorf("openai: malformed copy payload: %w", err)
	}
	if c.Headline == "" {
		return adapter.SiteCopy{}, errors.New("openai: copy payload missing headline")
	}
	return c, nil
}
