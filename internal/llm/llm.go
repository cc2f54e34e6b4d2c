// Package llm provides the language-model client used to answer queries.
package llm

import "context"

// Client generates a completion for a prompt.
type Client interface {
	ModelID() string
	Complete(ctx context.Context, prompt string) (string, error)
}
