// Package main provides the CLI entrypoint for kmerdiff.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/kmerdiff/internal/config"
	"github.com/verte-zerg/kmerdiff/internal/logging"
	"github.com/verte-zerg/kmerdiff/internal/report"
)

const defaultFormat = "latex"

var (
	verbose    bool
	configPath string
	dbPath     string

	logger = logging.Nop()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kmerdiff",
		Short:         "Compare trained k-mer models against reference models",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger = logging.New(cmd.ErrOrStderr(), verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "history database")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, cfg.History.DB)
	return cfg, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// resolveFofns picks the reference lists: flags, then config, then the
// defaults in the working directory. Only the defaults may be missing.
func resolveFofns(cmd *cobra.Command, flagValue []string, cfg config.FileConfig) []string {
	if cmd.Flags().Changed("models") {
		return flagValue
	}
	if len(cfg.Reference.Fofns) > 0 {
		return cfg.Reference.Fofns
	}
	var present []string
	for _, fofn := range config.DefaultFofns() {
		if _, err := os.Stat(fofn); err != nil {
			logger.Warn("skipping missing reference list", zap.String("fofn", fofn))
			continue
		}
		present = append(present, fofn)
	}
	return present
}

func resolveColor(cmd *cobra.Command, flagValue bool, cfg config.FileConfig) bool {
	if cmd.Flags().Changed("color") {
		return flagValue
	}
	if cfg.Report.Color != nil {
		return *cfg.Report.Color
	}
	return isTerminal(cmd)
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# kmerdiff configuration
# Uncomment a value to enable it. CLI flags override config values.

[reference]
# fofns = [%s]

[report]
# format = %q            # latex or text
# date-layout = %q       # Go time layout of run dates in summary names
# color = true            # Colour text table headers

[history]
# save = false            # Save every report run to the history database
# db = %q
`,
		quoteAll(config.DefaultFofns()),
		defaultFormat,
		report.DateLayoutDMY,
		config.DefaultDBPath(),
	)
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
