package cmd

import (
	"fmt"
	"strings"

	"github.com/longkey1/llmprobe/internal/probe/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, model, prompt, host, port, api, token, system_prompt, direct_url, openai_base_url"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the configuration values resolved from flags, environment
variables (LLMPROBE_*), the config file and defaults.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  llmprobe config                 # Show all configuration
  llmprobe config model           # Show only model
  llmprobe config direct_url      # Show the native chat endpoint`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configReadFailed != nil {
			return configReadFailed
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			value, ok := configField(cfg, strings.ToLower(args[0]))
			if !ok {
				return fmt.Errorf("unknown field: %s\nAvailable fields: %s", args[0], configFields)
			}
			fmt.Fprintln(out, value)
			return nil
		}

		fmt.Fprintf(out, "ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Fprintf(out, "Model: %s\n", cfg.Model)
		fmt.Fprintf(out, "Prompt: %s\n", cfg.Prompt)
		fmt.Fprintf(out, "Host: %s\n", cfg.Host)
		fmt.Fprintf(out, "Port: %s\n", cfg.Port)
		fmt.Fprintf(out, "API: %s\n", cfg.API)
		fmt.Fprintf(out, "Token: %s\n", maskToken(cfg.Token))
		fmt.Fprintf(out, "SystemPrompt: %s\n", cfg.SystemPrompt)
		fmt.Fprintf(out, "DirectURL: %s\n", cfg.DirectURL())
		fmt.Fprintf(out, "OpenAIBaseURL: %s\n", cfg.OpenAIBaseURL())
		return nil
	},
}

func configField(cfg *config.Config, field string) (string, bool) {
	switch field {
	case "configfile":
		return viper.ConfigFileUsed(), true
	case "model":
		return cfg.Model, true
	case "prompt":
		return cfg.Prompt, true
	case "host":
		return cfg.Host, true
	case "port":
		return cfg.Port, true
	case "api":
		return string(cfg.API), true
	case "token":
		return maskToken(cfg.Token), true
	case "system_prompt", "systemprompt":
		return cfg.SystemPrompt, true
	case "direct_url", "directurl":
		return cfg.DirectURL(), true
	case "openai_base_url", "openaibaseurl":
		return cfg.OpenAIBaseURL(), true
	default:
		return "", false
	}
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
