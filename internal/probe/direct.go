package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/longkey1/llmprobe/internal/chat"
	"github.com/longkey1/llmprobe/internal/ollama"
	"github.com/longkey1/llmprobe/internal/probe/config"
)

// DirectCheck sends the prompt to the native chat endpoint and streams the
// reply to Out. Malformed lines are reported and skipped; only a failed
// request makes it return false.
func (r *Runner) DirectCheck(ctx context.Context, cfg *config.Config) bool {
	return r.direct(ctx, cfg) == nil
}

func (r *Runner) direct(ctx context.Context, cfg *config.Config) error {
	r.printHeader("Direct API request", cfg)

	client := ollama.NewClient(cfg.DirectURL(), r.HTTPClient)

	fmt.Fprintln(r.Out, "Sending request...")
	r.Logger.Debug("posting chat request", "url", client.URL(), "model", cfg.Model)

	stream, err := client.Chat(ctx, cfg.Model, []chat.Message{chat.UserMessage(cfg.Prompt)})
	if err != nil {
		var reqErr *ollama.RequestError
		if errors.As(err, &reqErr) {
			r.Logger.Debug("server returned an error", "status", reqErr.StatusCode, "body", reqErr.Body)
		}
		fmt.Fprintf(r.Out, "An error occurred: %v\n", err)
		return err
	}
	defer stream.Close()

	r.Logger.Debug("streaming response", "request_id", stream.RequestID)

	fmt.Fprintln(r.Out, "\nResponse:")
	var full strings.Builder
	for fragment, err := range stream.Fragments() {
		if err != nil {
			var parseErr *ollama.ParseError
			if errors.As(err, &parseErr) {
				fmt.Fprintf(r.Out, "Parse error: %s\n", parseErr.Line)
				continue
			}
			fmt.Fprintf(r.Out, "\nAn error occurred: %v\n", err)
			return err
		}
		fmt.Fprint(r.Out, fragment)
		full.WriteString(fragment)
	}
	fmt.Fprint(r.Out, "\n\n")

	r.Logger.Debug("stream finished", "request_id", stream.RequestID, "bytes", full.Len())
	return nil
}
