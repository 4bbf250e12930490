package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/longkey1/llmprobe/internal/chat"
	"github.com/longkey1/llmprobe/internal/openai"
	"github.com/longkey1/llmprobe/internal/probe/config"
)

const openAITitle = "OpenAI client"

// OpenAICheck sends the prompt with a system message to the
// OpenAI-compatible endpoint and prints the first choice. When no client
// library is available it returns false without touching the network.
func (r *Runner) OpenAICheck(ctx context.Context, cfg *config.Config) bool {
	return r.openAI(ctx, cfg) == nil
}

func (r *Runner) openAI(ctx context.Context, cfg *config.Config) error {
	completer, err := r.NewCompleter(cfg.OpenAIBaseURL(), cfg.Token)
	if errors.Is(err, openai.ErrUnavailable) {
		fmt.Fprintf(r.Out, "\n===== %s =====\n", openAITitle)
		fmt.Fprintln(r.Out, "The OpenAI client library is not available in this build.")
		fmt.Fprintln(r.Out, "To enable it, rebuild without the noopenai build tag: go build .")
		return err
	}

	r.printHeader(openAITitle, cfg)
	if err != nil {
		return r.openAIFailed(err)
	}

	fmt.Fprintln(r.Out, "Sending request...")
	r.Logger.Debug("creating chat completion", "base_url", cfg.OpenAIBaseURL(), "model", cfg.Model)

	content, err := completer.Complete(ctx, cfg.Model, []chat.Message{
		chat.SystemMessage(cfg.SystemPrompt),
		chat.UserMessage(cfg.Prompt),
	})
	if err != nil {
		return r.openAIFailed(err)
	}

	fmt.Fprintln(r.Out, "\nResponse:")
	fmt.Fprintln(r.Out, content)
	fmt.Fprint(r.Out, "\n\n")
	return nil
}

func (r *Runner) openAIFailed(err error) error {
	fmt.Fprintf(r.Out, "An error occurred: %v\n", err)
	fmt.Fprintln(r.Out, "Note: check that the server fully supports the OpenAI-compatible API.")
	return err
}
