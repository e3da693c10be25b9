package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/editor"
	"github.com/thoreinstein/mcpsync/internal/errors"
)

// openEditor is replaced by tests.
var openEditor = editor.Open

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcpsync configuration",
	Long: `Manage mcpsync configuration stored in ~/.config/mcpsync/config.yaml.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  mcpsync config

  # Sync from a list managed by mcpsync instead of ~/.claude.json
  mcpsync config set source_mode app-managed

  # Keep five backups per file
  mcpsync config set backup.max_backups 5

See Also: mcpsync tools enable`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Get a single configuration value by key. List values are printed one per line.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. enabled_tools takes a comma-separated list.

Keys: ` + strings.Join(config.Keys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values in YAML format.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your editor. The file is created with
defaults if it does not exist, and validated after the editor exits.`,
	Example: `  EDITOR="code --wait" mcpsync config edit`,
	Args:    cobra.NoArgs,
	RunE:    runConfigEdit,
}

func currentConfig() (*config.Config, error) {
	if configLoadErr != nil {
		return nil, errors.NewConfigError(configLoadErr)
	}
	return loadedConfig, nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	return runConfigGetWithWriter(cmd.OutOrStdout(), cfg, args[0])
}

func runConfigGetWithWriter(w io.Writer, cfg *config.Config, key string) error {
	val, err := cfg.Get(key)
	if err != nil {
		return err
	}
	switch v := val.(type) {
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case fmt.Stringer, string, int, bool:
		fmt.Fprintln(w, v)
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "encoding value")
		}
		fmt.Fprint(w, string(data))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	return runConfigSetWithWriter(cmd.OutOrStdout(), cfg, configPath(), args[0], args[1])
}

func runConfigSetWithWriter(w io.Writer, cfg *config.Config, path, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return errors.NewConfigError(err)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	val, _ := cfg.Get(key)
	printf(w, "Set %s = %v\n", key, val)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	return runConfigListWithWriter(cmd.OutOrStdout(), cfg)
}

func runConfigListWithWriter(w io.Writer, cfg *config.Config) error {
	if currentFormat() == outputJSON {
		return writeStructured(w, cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	fmt.Fprint(w, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
	}
	if err := openEditor(cmd.Context(), path); err != nil {
		return errors.NewSystemError(err, "Set $EDITOR to your editor")
	}
	if _, err := config.Load(path); err != nil {
		return errors.NewUserError(err, "Run: mcpsync config edit")
	}
	printf(cmd.OutOrStdout(), "Saved %s\n", path)
	return nil
}
