// Package anthropic implements internal/llm.Provider against Anthropic's
// Claude API: streaming text, interleaved extended thinking, tool use, and
// vision attachments for evidence analysis.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/haasonsaas/case-nexus/internal/backoff"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/pkg/models"
)

// Provider implements llm.Provider against Anthropic's Messages API.
type Provider struct {
	client       sdk.Client
	maxRetries   int
	backoff      backoff.BackoffPolicy
	defaultModel string
}

// Config configures a Provider. Only APIKey is required.
type Config struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	DefaultModel string
}

// New creates a Provider, applying sensible defaults for any zero-valued
// optional field.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client:       sdk.NewClient(opts...),
		maxRetries:   cfg.MaxRetries,
		backoff:      backoff.DefaultPolicy(),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) SupportsTools() bool { return true }

func (p *Provider) Models() []llm.Model {
	return []llm.Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextSize: 200000, SupportsVision: true},
	}
}

// Complete opens a streaming call and translates Anthropic SSE events into
// llm.CompletionChunk values on the returned channel. The channel is closed
// when the stream ends, errors, or ctx is canceled.
func (p *Provider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	chunks := make(chan *llm.CompletionChunk)

	go func() {
		defer close(chunks)

		var stream *ssestream.Stream[sdk.MessageStreamEventUnion]
		var err error

		for attempt := 1; attempt <= p.maxRetries+1; attempt++ {
			stream, err = p.createStream(ctx, req)
			if err == nil {
				break
			}

			wrapped := p.wrapError(err, p.model(req.Model))
			if !p.isRetryable(wrapped) || attempt > p.maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				chunks <- &llm.CompletionChunk{Error: ctx.Err()}
				return
			case <-time.After(backoff.ComputeBackoff(p.backoff, attempt)):
			}
		}

		if err != nil {
			chunks <- &llm.CompletionChunk{Error: fmt.Errorf("anthropic: max retries exceeded: %w", p.wrapError(err, p.model(req.Model)))}
			return
		}

		p.processStream(stream, chunks, p.model(req.Model))
	}()

	return chunks, nil
}

func (p *Provider) createStream(ctx context.Context, req *llm.CompletionRequest) (*ssestream.Stream[sdk.MessageStreamEventUnion], error) {
	messages, err := p.convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: failed to convert messages: %w", err)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model(req.Model)),
		Messages:  messages,
		MaxTokens: int64(p.maxTokens(req.MaxTokens)),
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Type: "text", Text: req.System}}
	}

	if len(req.Tools) > 0 {
		tools, err := p.convertTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("anthropic: failed to convert tools: %w", err)
		}
		params.Tools = tools
	}

	if req.EnableThinking {
		budget := int64(req.ThinkingBudgetTokens)
		if budget < 1024 {
			budget = 10000
		}
		params.Thinking = sdk.ThinkingConfigParamOfEnabled(budget)
	}

	return p.client.Messages.NewStreaming(ctx, params), nil
}

// maxEmptyStreamEvents bounds consecutive no-op SSE events before the
// stream is treated as malformed and aborted.
const maxEmptyStreamEvents = 300

func (p *Provider) processStream(stream *ssestream.Stream[sdk.MessageStreamEventUnion], chunks chan<- *llm.CompletionChunk, model string) {
	var currentToolCall *models.ToolCall
	var toolInput strings.Builder
	emptyCount := 0
	inThinking := false
	var inputTokens, outputTokens int

	for stream.Next() {
		event := stream.Current()
		handled := false

		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			if start.Message.Usage.InputTokens > 0 {
				inputTokens = int(start.Message.Usage.InputTokens)
			}
			handled = true

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			switch block.Type {
			case "thinking":
				inThinking = true
				chunks <- &llm.CompletionChunk{ThinkingStart: true}
				handled = true
			case "tool_use":
				toolUse := block.AsToolUse()
				currentToolCall = &models.ToolCall{ID: toolUse.ID, Name: toolUse.Name}
				toolInput.Reset()
				handled = true
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					chunks <- &llm.CompletionChunk{Text: delta.Text}
					handled = true
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					chunks <- &llm.CompletionChunk{Thinking: delta.Thinking}
					handled = true
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					toolInput.WriteString(delta.PartialJSON)
					handled = true
				}
			}

		case "content_block_stop":
			if inThinking {
				chunks <- &llm.CompletionChunk{ThinkingEnd: true}
				inThinking = false
				handled = true
			} else if currentToolCall != nil {
				currentToolCall.Input = json.RawMessage(toolInput.String())
				chunks <- &llm.CompletionChunk{ToolCall: currentToolCall}
				currentToolCall = nil
				handled = true
			}

		case "message_delta":
			delta := event.AsMessageDelta()
			if delta.Usage.OutputTokens > 0 {
				outputTokens = int(delta.Usage.OutputTokens)
			}
			handled = true

		case "message_stop":
			chunks <- &llm.CompletionChunk{Done: true, InputTokens: inputTokens, OutputTokens: outputTokens}
			return

		case "error":
			chunks <- &llm.CompletionChunk{Error: p.wrapError(errors.New("anthropic stream error"), model)}
			return
		}

		if handled {
			emptyCount = 0
		} else if emptyCount++; emptyCount >= maxEmptyStreamEvents {
			chunks <- &llm.CompletionChunk{Error: p.wrapError(fmt.Errorf("stream appears malformed: %d consecutive empty events", emptyCount), model)}
			return
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- &llm.CompletionChunk{Error: p.wrapError(err, model)}
	}
}

func (p *Provider) convertMessages(messages []llm.CompletionMessage) ([]sdk.MessageParam, error) {
	var result []sdk.MessageParam
	for _, msg := range messages {
		if msg.Role == "system" {
			continue
		}

		var content []sdk.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, sdk.NewTextBlock(msg.Content))
		}
		for _, att := range msg.Attachments {
			if block := imageBlockFromAttachment(att); block != nil {
				content = append(content, *block)
			}
		}
		for _, tr := range msg.ToolResults {
			content = append(content, sdk.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}
		for _, tc := range msg.ToolCalls {
			var input map[string]interface{}
			if err := json.Unmarshal(tc.Input, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call input: %w", err)
			}
			content = append(content, sdk.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if msg.Role == "assistant" {
			result = append(result, sdk.NewAssistantMessage(content...))
		} else {
			result = append(result, sdk.NewUserMessage(content...))
		}
	}
	return result, nil
}

func imageBlockFromAttachment(att models.Attachment) *sdk.ContentBlockParamUnion {
	if att.Type != "image" && !strings.HasPrefix(att.MimeType, "image/") {
		return nil
	}
	if mediaType, data, ok := parseDataURL(att.URL); ok {
		block := sdk.NewImageBlockBase64(mediaType, data)
		return &block
	}
	if att.URL != "" {
		return &sdk.ContentBlockParamUnion{
			OfImage: &sdk.ImageBlockParam{
				Source: sdk.ImageBlockParamSourceUnion{
					OfURL: &sdk.URLImageSourceParam{URL: att.URL},
				},
			},
		}
	}
	return nil
}

func parseDataURL(raw string) (mediaType, data string, ok bool) {
	if !strings.HasPrefix(raw, "data:") {
		return "", "", false
	}
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	meta := strings.TrimPrefix(parts[0], "data:")
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", false
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		return "", "", false
	}
	return mediaType, parts[1], true
}

func (p *Provider) convertTools(tools []llm.Tool) ([]sdk.ToolUnionParam, error) {
	var result []sdk.ToolUnionParam
	for _, tool := range tools {
		var schema sdk.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}
		param := sdk.ToolUnionParamOfTool(schema, tool.Name())
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
		}
		param.OfTool.Description = sdk.String(tool.Description())
		result = append(result, param)
	}
	return result, nil
}

func (p *Provider) model(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func (p *Provider) maxTokens(maxTokens int) int {
	if maxTokens <= 0 {
		return 4096
	}
	return maxTokens
}

func (p *Provider) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := llm.GetProviderError(err); ok {
		switch {
		case pe.Status == 429, pe.Status >= 500:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"rate_limit", "429", "too many requests", "500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout",
		"timeout", "deadline exceeded", "connection reset", "connection refused", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func (p *Provider) wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	if llm.IsProviderError(err) {
		return err
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		pe := llm.NewProviderError("anthropic", model, err).WithStatus(apiErr.StatusCode)

		if raw := apiErr.RawJSON(); raw != "" {
			var payload errorPayload
			if json.Unmarshal([]byte(raw), &payload) == nil {
				if payload.Error.Message != "" {
					pe = pe.WithMessage(payload.Error.Message)
				}
				if payload.Error.Type != "" {
					pe = pe.WithCode(payload.Error.Type)
				}
				if payload.RequestID != "" {
					pe = pe.WithRequestID(payload.RequestID)
				}
			}
		}
		if pe.Message == "" {
			pe.Message = "anthropic request failed"
		}
		return pe
	}

	return llm.NewProviderError("anthropic", model, err)
}
