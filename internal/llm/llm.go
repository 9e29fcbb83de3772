// Package llm is the narrow boundary to the language model. The pipeline
// depends only on Client, so tests substitute a deterministic stub and the
// orchestrator never sees a vendor response shape beyond text or a stream of
// text chunks.
package llm

import "context"

// Roles used in prompt messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prompt turn.
type Message struct {
	Role    string
	Content string
}

// Client is the opaque completion function the pipeline drives.
type Client interface {
	// Complete sends the messages and returns the full response text.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Stream sends the messages and forwards each delivered text chunk to
	// onChunk as it arrives. A non-nil error from onChunk aborts the stream.
	Stream(ctx context.Context, messages []Message, onChunk func(chunk string) error) error
}
