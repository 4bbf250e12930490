// Package openai talks to the OpenAI-compatible surface of a local model
// server. The SDK-backed implementation is compiled in unless the binary is
// built with the noopenai tag, in which case NewCompleter reports
// ErrUnavailable.
package openai

import (
	"context"
	"errors"

	"github.com/longkey1/llmprobe/internal/chat"
)

const (
	ProviderName = "openai"
	DefaultToken = "ollama"
)

var (
	// ErrUnavailable means no OpenAI client library was compiled into the binary.
	ErrUnavailable = errors.New("OpenAI client library is not available")

	// ErrNoChoices means the server answered without any choice.
	ErrNoChoices = errors.New("no choices in response")
)

// Completer issues a single non-streaming chat completion
type Completer interface {
	Complete(ctx context.Context, model string, messages []chat.Message) (string, error)
}

// Factory builds a Completer bound to a base URL and credential
type Factory func(baseURL, token string) (Completer, error)

// backend is set by the SDK implementation when it is compiled in.
var backend Factory

// Available reports whether a client library is compiled in
func Available() bool {
	return backend != nil
}

// NewCompleter builds a Completer for the given base URL, e.g.
// "http://localhost:11434/v1".
func NewCompleter(baseURL, token string) (Completer, error) {
	if backend == nil {
		return nil, ErrUnavailable
	}
	if token == "" {
		token = DefaultToken
	}
	return backend(baseURL, token)
}
