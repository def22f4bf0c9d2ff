package llm

import "context"

// Provider is an opaque completion backend. The assistant never inspects
// how the text was produced; it only parses the returned reply.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
	Name() string
}
