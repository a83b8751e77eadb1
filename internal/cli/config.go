package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-vidblog/internal/config"
)

// secretKeys are masked by config list.
var secretKeys = map[string]bool{
	config.KeyTranscriptAPIKey: true,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in $XDG_CONFIG_HOME/go-vidblog/config.yaml
(default ~/.config/go-vidblog/config.yaml). Every setting can be
overridden by an environment variable: VIDBLOG_ followed by the key in
upper case with dashes replaced by underscores.

Supported settings:
` + keyHelp(),
		Example: `  vidblog config set provider gemini
  vidblog config set output-dir ~/blog/posts
  vidblog config get provider
  vidblog config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// keyHelp lists every key with its environment variable.
func keyHelp() string {
	var b strings.Builder
	for _, key := range config.Keys {
		fmt.Fprintf(&b, "  %-20s (env: %s)\n", key, config.EnvName(key))
	}
	return strings.TrimRight(b.String(), "\n")
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Values are validated before they are written. Paths are expanded and
output-dir must be writable (it is created if missing).`,
		Example: `  vidblog config set output-dir ~/blog/posts
  vidblog config set rate-per-minute 20`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the file value, or the environment override when the file has none.
Prints nothing if neither is set.`,
		Example: `  vidblog config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  vidblog config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	stored, err := env.Config.Set(key, value)
	if err != nil {
		return err
	}
	if secretKeys[key] {
		stored = mask(stored)
	}
	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, stored)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := env.Config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvName(key))
	}
	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := env.Config.List()
	if err != nil {
		return err
	}

	lines := 0
	for _, key := range config.Keys {
		value, fromFile := data[key]
		suffix := ""
		if envVal := env.Getenv(config.EnvName(key)); envVal != "" {
			value, suffix = envVal, " (from env)"
		} else if !fromFile {
			continue
		}
		if secretKeys[key] {
			value = mask(value)
		}
		_, _ = fmt.Fprintf(env.Stdout, "%s=%s%s\n", key, value, suffix)
		lines++
	}

	if lines == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No configuration set.")
		_, _ = fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			_, _ = fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
	}
	if path := env.Config.Path(); path != "" {
		_, _ = fmt.Fprintf(env.Stderr, "Config file: %s\n", path)
	}
	return nil
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
