package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/llm"
)

var _ llm.Client = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

func (c *Client) buildChatRequest(messages []llm.Message, opts llm.Options, stream bool) chatRequest {
	model := opts.Model
	if model == "" {
		model = c.chatModel
	}
	wire := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return chatRequest{
		Model:       model,
		Messages:    wire,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
}

// Complete issues a single-shot chat completion.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Completion, error) {
	var resp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/chat/completions", c.buildChatRequest(messages, opts, false), &resp); err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.Completion{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}

// Stream issues a streamed chat completion and decodes the SSE frames into
// fragments as they arrive. Fragments are forwarded one at a time, never
// accumulated; cancelling ctx abandons the connection promptly.
func (c *Client) Stream(ctx context.Context, messages []llm.Message, opts llm.Options) (<-chan llm.StreamDelta, error) {
	body, err := json.Marshal(c.buildChatRequest(messages, opts, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/chat/completions"), strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("streamed chat completion failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	out := make(chan llm.StreamDelta)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				c.emit(ctx, out, llm.StreamDelta{Done: true})
				return
			}

			var frame struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
					FinishReason *string `json:"finish_reason"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				c.logger.Warn("skipping malformed stream frame", zap.Error(err))
				continue
			}
			if len(frame.Choices) == 0 {
				continue
			}
			if content := frame.Choices[0].Delta.Content; content != "" {
				if !c.emit(ctx, out, llm.StreamDelta{Content: content}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.emit(ctx, out, llm.StreamDelta{Err: fmt.Errorf("stream read failed: %w", err)})
			return
		}
		if ctx.Err() != nil {
			// Best effort; the consumer may already be gone.
			select {
			case out <- llm.StreamDelta{Err: ctx.Err()}:
			default:
			}
		}
	}()

	return out, nil
}

// emit sends a delta unless the consumer has gone away.
func (c *Client) emit(ctx context.Context, out chan<- llm.StreamDelta, delta llm.StreamDelta) bool {
	select {
	case out <- delta:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) Capabilities() llm.Capabilities {
	provider := "openai"
	if c.cfg.AzureAPIVersion != "" {
		provider = "azure-openai"
	}
	return llm.Capabilities{
		Provider:  provider,
		Model:     c.chatModel,
		Streaming: true,
	}
}
