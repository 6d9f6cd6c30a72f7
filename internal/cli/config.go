package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cosmospool/cosmospool/internal/config"
	"github.com/cosmospool/cosmospool/internal/output"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify cosmospool configuration settings.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.cosmospool/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  cosmospool config init
  cosmospool config init --force`,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: file values with environment and
flag overrides applied.`,
	Example: `  cosmospool config show
  cosmospool config show -o json`,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long:  `Get a configuration value by its dot-separated path.`,
	Example: `  cosmospool config get provider.rpc
  cosmospool config get tokens.stable.decimals`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dot-separated path and save the file.
The updated configuration is validated before it is written.`,
	Example: `  cosmospool config set pool.address 0x...
  cosmospool config set deposit.confirm_timeout 5m
  cosmospool config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = "other"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return poolerr.WithSuggestion(
			poolerr.WithDetails(poolerr.ErrGeneral, map[string]string{"path": configPath}),
			"Configuration already exists. Use --force to overwrite.",
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	output.Successf(w, "Configuration initialized at %s", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - provider.rpc: Your wallet provider endpoint")
	outln(w, "  - pool.address: The pool contract to deposit into")
	outln(w, "  - tokens.volatile / tokens.stable: Token contracts and decimals")
	outln(w, "  - deposit.confirm_timeout: Give up waiting for receipts after this long (0 waits)")
	outln(w, "  - logging.level: Log level (off/error/debug)")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		tree, err := configTree(cfg)
		if err != nil {
			return err
		}
		return cmdFormatter(cmd).Print(tree)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]

	configPath := config.Path(cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		if !poolerr.Is(err, poolerr.ErrConfigNotFound) {
			return err
		}
		current = config.Defaults()
		current.Home = cfg.Home
	}

	updated, err := setConfigValue(current, path, value)
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := config.Save(updated, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

// configTree returns the configuration as generic maps keyed by YAML names.
func configTree(c *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// configNode returns the YAML document for c and the node at path.
func configNode(c *config.Config, path string) (*yaml.Node, *yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(c); err != nil {
		return nil, nil, err
	}

	node := &doc
	for _, key := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, nil, unknownKey(path)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, nil, unknownKey(path)
		}
		node = next
	}
	return &doc, node, nil
}

// getConfigValue retrieves a value using dot notation. Sections print as YAML.
func getConfigValue(c *config.Config, path string) (string, error) {
	_, node, err := configNode(c, path)
	if err != nil {
		return "", err
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// setConfigValue returns a copy of c with the scalar at path replaced.
func setConfigValue(c *config.Config, path, value string) (*config.Config, error) {
	doc, node, err := configNode(c, path)
	if err != nil {
		return nil, err
	}
	if node.Kind != yaml.ScalarNode {
		return nil, poolerr.WithDetails(poolerr.ErrInvalidInput, map[string]string{
			"path":   path,
			"reason": "only single values can be set",
		})
	}

	// Strings stay strings; other scalars are re-resolved from the new text.
	node.Value = value
	if node.Tag != "!!str" {
		node.Tag = ""
		node.Style = 0
	}

	updated := config.Defaults()
	if err := doc.Decode(updated); err != nil {
		return nil, poolerr.WithDetails(poolerr.WithCause(poolerr.ErrInvalidInput, err), map[string]string{
			"path":  path,
			"value": value,
		})
	}
	return updated, nil
}

func unknownKey(path string) error {
	return poolerr.WithSuggestion(
		poolerr.WithDetails(poolerr.ErrNotFound, map[string]string{"path": path}),
		"Run 'cosmospool config show' to list configuration keys",
	)
}
