/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/longkey1/llmprobe/internal/probe"
	"github.com/longkey1/llmprobe/internal/probe/config"
	"github.com/longkey1/llmprobe/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile          string
	verbose          bool
	enableTelemetry  bool
	exitCode         int
	configReadFailed error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmprobe",
	Short: "Send test requests to a local LLM server",
	Long: `llmprobe checks that a locally running model server (such as Ollama) is
reachable and producing output.

It sends the prompt to the native chat endpoint (/api/chat, streamed as NDJSON)
and to the OpenAI-compatible endpoint (/v1/chat/completions), prints the replies
and exits with 0 when every request succeeded, 1 otherwise.

Use --api to restrict the run to one surface.`,
	Example: `  llmprobe
  llmprobe --model tinyllama --prompt "ping" --port 11434
  llmprobe --api direct`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runProbe(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		exitCode = code
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.NewDefaultConfig()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/llmprobe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringP("model", "m", defaults.Model, "Model name")
	rootCmd.PersistentFlags().StringP("prompt", "p", defaults.Prompt, "Prompt to send")
	rootCmd.PersistentFlags().String("host", defaults.Host, "Host of the model server")
	rootCmd.PersistentFlags().String("port", defaults.Port, "Port of the model server")
	rootCmd.PersistentFlags().String("api", string(defaults.API), "API to test (direct, openai or both)")

	bindFlags()

	rootCmd.Flags().BoolVar(&enableTelemetry, "telemetry", false, "Write OpenTelemetry spans and metrics to stderr")
}

// bindFlags lets the persistent flags override every other config source
func bindFlags() {
	for _, name := range []string{"model", "prompt", "host", "port", "api"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	viper.SetEnvPrefix("LLMPROBE")
	viper.AutomaticEnv()

	defaults := config.NewDefaultConfig()
	viper.SetDefault("model", defaults.Model)
	viper.SetDefault("prompt", defaults.Prompt)
	viper.SetDefault("host", defaults.Host)
	viper.SetDefault("port", defaults.Port)
	viper.SetDefault("api", string(defaults.API))
	viper.SetDefault("token", defaults.Token)
	viper.SetDefault("system_prompt", defaults.SystemPrompt)

	configReadFailed = nil
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			configReadFailed = fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		viper.AddConfigPath("/etc/llmprobe")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "llmprobe"))
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				configReadFailed = fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  LLMPROBE_MODEL:", viper.GetString("model"))
		fmt.Fprintln(os.Stderr, "  LLMPROBE_HOST:", viper.GetString("host"))
		fmt.Fprintln(os.Stderr, "  LLMPROBE_PORT:", viper.GetString("port"))
		fmt.Fprintln(os.Stderr, "  LLMPROBE_API:", viper.GetString("api"))
	}
}

// newLogger returns the diagnostics logger: debug level on stderr with
// --verbose, warnings only otherwise.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runProbe loads the configuration, runs the selected checks and returns the
// exit code of the summary.
func runProbe(ctx context.Context, out, errOut io.Writer) (int, error) {
	if configReadFailed != nil {
		return 1, configReadFailed
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return 1, fmt.Errorf("loading config: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	tel, err := telemetry.New(ctx, errOut, enableTelemetry)
	if err != nil {
		return 1, fmt.Errorf("initializing telemetry: %w", err)
	}
	logger := newLogger(errOut)
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down telemetry", "error", err)
		}
	}()

	runner := probe.NewRunner(out, logger, tel)
	results := runner.Run(ctx, cfg)
	return probe.Summarize(out, results), nil
}
