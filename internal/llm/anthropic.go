package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-5"

// AnthropicClient implements Client on the Anthropic Messages API (or a
// compatible proxy via base URL override).
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

func NewAnthropicClient(apiKey, model, baseURL string, timeout time.Duration) *AnthropicClient {
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
		timeout:   timeout,
	}
}

// withTimeout bounds one model call. Streaming calls share the same bound,
// covering the whole stream.
func (c *AnthropicClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Model returns the configured model identifier, for audit metadata.
func (c *AnthropicClient) Model() string {
	return c.model
}

func (c *AnthropicClient) buildParams(messages []Message) anthropic.MessageNewParams {
	var system string
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages:  anthropic.F(turns),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}
	return params
}

func (c *AnthropicClient) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Messages.New(ctx, c.buildParams(messages))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}
	return text, nil
}

func (c *AnthropicClient) Stream(ctx context.Context, messages []Message, onChunk func(string) error) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	stream := c.client.Messages.NewStreaming(ctx, c.buildParams(messages))
	for stream.Next() {
		event := stream.Current()
		switch evt := event.AsUnion().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if evt.Delta.Text != "" {
				if err := onChunk(evt.Delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("LLM stream failed: %w", err)
	}
	return nil
}
