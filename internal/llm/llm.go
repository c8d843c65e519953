// Package llm abstracts the language-model services the planner depends on.
// Replies are always treated as untrusted text: all structural parsing of
// model output lives in the callers, never here.
package llm

import (
	"context"

	"dinner-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
