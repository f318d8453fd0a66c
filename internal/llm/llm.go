package llm

import "context"

// Message roles understood by the completion models.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single turn in a chat-completion request.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest describes one call to a completion model.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
}

// CompletionClient is the interface every completion model client must
// implement. It is injected into the query expander and the answer
// synthesizer so tests can substitute a double.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
