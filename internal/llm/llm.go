// Package llm defines the chat-completion transport contract consumed by
// the rest of the service, plus the context-injecting decorator that
// augments conversations with knowledge-base material before they reach a
// concrete provider.
package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Messages are treated as immutable:
// the decorator prepends new messages, it never edits incoming ones.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	FileIDs []string `json:"file_ids,omitempty"`
}

// Options tunes a single completion call.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type Completion struct {
	Content      string
	Model        string
	FinishReason string
}

// StreamDelta is one incremental fragment of a streamed completion.
// Err, when set, terminates the stream; Done marks normal completion.
type StreamDelta struct {
	Content string
	Done    bool
	Err     error
}

type Capabilities struct {
	Provider  string
	Model     string
	Streaming bool
}

// Client is the abstract chat-completion transport: submit a message
// list, get back either a single completion or a forward-only sequence
// of fragments. Implementations must honour ctx cancellation on the
// network call in flight.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error)
	// Stream returns a producer-driven channel of fragments. The channel
	// is closed after a Done or Err delta; callers must drain it.
	Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamDelta, error)
	Capabilities() Capabilities
	Close() error
}
