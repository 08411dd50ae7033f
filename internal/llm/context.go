package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// contextMarker tags the system message this decorator injects. Replayed
// histories carry the whole previous conversation on every call, so the
// marker is what prevents the same context being prepended twice.
const contextMarker = "[knowledge-base context]"

// ContextSource resolves the background text to inject for a query.
// An empty string means "no augmentation" and is never an error for the
// conversation: the decorator forwards the original messages unchanged.
type ContextSource interface {
	RelevantContext(ctx context.Context, query string) (string, error)
}

// ContextInjector decorates any Client so every forwarded conversation
// carries at most one context system message. It holds no per-conversation
// state; each call re-derives everything from the message list.
type ContextInjector struct {
	next   Client
	source ContextSource
	logger *zap.Logger
}

var _ Client = (*ContextInjector)(nil)

func NewContextInjector(next Client, source ContextSource, logger *zap.Logger) *ContextInjector {
	return &ContextInjector{next: next, source: source, logger: logger}
}

func (d *ContextInjector) Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	return d.next.Complete(ctx, d.augment(ctx, messages), opts)
}

func (d *ContextInjector) Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamDelta, error) {
	return d.next.Stream(ctx, d.augment(ctx, messages), opts)
}

func (d *ContextInjector) Capabilities() Capabilities { return d.next.Capabilities() }

func (d *ContextInjector) Close() error { return d.next.Close() }

// augment returns the message list to forward. The input slice is never
// mutated; when context is injected a new slice is built with the context
// system message first and every caller message after it.
func (d *ContextInjector) augment(ctx context.Context, messages []Message) []Message {
	if hasInjectedContext(messages) {
		return messages
	}

	query := lastUserContent(messages)
	if query == "" {
		return messages
	}

	knowledge, err := d.source.RelevantContext(ctx, query)
	if err != nil {
		// Augmentation failure degrades to a plain chat turn.
		d.logger.Warn("context retrieval failed, forwarding without augmentation", zap.Error(err))
		return messages
	}
	if knowledge == "" {
		return messages
	}

	injected := Message{
		Role:    RoleSystem,
		Content: formatContextMessage(knowledge),
	}
	augmented := make([]Message, 0, len(messages)+1)
	augmented = append(augmented, injected)
	augmented = append(augmented, messages...)
	return augmented
}

func formatContextMessage(knowledge string) string {
	return fmt.Sprintf(
		"%s Use the following background information when it is relevant to the user's question. "+
			"If it is not relevant, answer from your own knowledge.\n\n%s",
		contextMarker, knowledge,
	)
}

func hasInjectedContext(messages []Message) bool {
	for _, msg := range messages {
		if msg.Role == RoleSystem && strings.Contains(msg.Content, contextMarker) {
			return true
		}
	}
	return false
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
