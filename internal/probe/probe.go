// Package probe runs diagnostic chat requests against a local model server
// and reduces their outcomes to a process exit code.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/longkey1/llmprobe/internal/ollama"
	"github.com/longkey1/llmprobe/internal/openai"
	"github.com/longkey1/llmprobe/internal/probe/config"
	"github.com/longkey1/llmprobe/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is the outcome of one check
type Result struct {
	Name string
	OK   bool
	Err  error
}

// Runner executes the checks in sequence and prints their progress to Out
type Runner struct {
	Out        io.Writer
	Logger     *slog.Logger
	Telemetry  *telemetry.Telemetry
	HTTPClient *http.Client // used by the direct check; nil means a default client

	// NewCompleter builds the OpenAI-compatible client. Tests replace it
	// with a fake; a factory returning openai.ErrUnavailable simulates a
	// binary built without the client library.
	NewCompleter openai.Factory
}

// NewRunner creates a Runner with the default OpenAI-compatible client
func NewRunner(out io.Writer, logger *slog.Logger, tel *telemetry.Telemetry) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if tel == nil {
		tel = telemetry.Noop()
	}
	return &Runner{
		Out:          out,
		Logger:       logger,
		Telemetry:    tel,
		NewCompleter: openai.NewCompleter,
	}
}

// Run executes the checks enabled by cfg.API strictly in order, direct
// first, and returns their results in the same order.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) []Result {
	var results []Result
	if cfg.API.Includes(config.APIDirect) {
		results = append(results, r.run(ctx, cfg, ollama.ProviderName, r.direct))
	}
	if cfg.API.Includes(config.APIOpenAI) {
		results = append(results, r.run(ctx, cfg, openai.ProviderName, r.openAI))
	}
	return results
}

func (r *Runner) run(ctx context.Context, cfg *config.Config, name string, check func(context.Context, *config.Config) error) Result {
	ctx, span := r.Telemetry.Tracer.Start(ctx, "probe."+name, trace.WithAttributes(
		attribute.String("model", cfg.Model),
		attribute.String("host", cfg.Host),
		attribute.String("port", cfg.Port),
	))
	defer span.End()

	err := check(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.Logger.Debug("check failed", "check", name, "error", err)
	} else {
		r.Logger.Debug("check succeeded", "check", name)
	}
	r.Telemetry.RecordCheck(ctx, name, err == nil)

	return Result{Name: name, OK: err == nil, Err: err}
}

// Summarize prints the overall outcome and returns the exit code: 0 when
// every result succeeded, 1 otherwise.
func Summarize(w io.Writer, results []Result) int {
	for _, result := range results {
		if !result.OK {
			fmt.Fprintln(w, "Some tests failed.")
			return 1
		}
	}
	fmt.Fprintln(w, "All tests passed!")
	return 0
}

func (r *Runner) printHeader(title string, cfg *config.Config) {
	fmt.Fprintf(r.Out, "\n===== %s =====\n", title)
	fmt.Fprintf(r.Out, "Model: %s\n", cfg.Model)
	fmt.Fprintf(r.Out, "Prompt: %s\n", cfg.Prompt)
	fmt.Fprintf(r.Out, "Port: %s\n", cfg.Port)
}
