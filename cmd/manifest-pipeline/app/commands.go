// Package app provides the commands of the manifest-pipeline CLI.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"manifest-pipeline/internal/config"
)

const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagFormat      = "format"
	flagOutput      = "output"
	flagSchema      = "schema"
	flagRegistry    = "registry"
	flagMetricsFile = "metrics-file"
	flagNormalize   = "normalize"
	flagMigrate     = "migrate"
	flagValidate    = "validate"
)

// keyOutputPath holds --output. It must not be "output", which would shadow
// the output.* configuration keys.
const keyOutputPath = "output_path"

// NewRootCmd creates the root command with every subcommand attached. Each
// call returns an independent command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:               "manifest-pipeline",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Resolve, normalize and migrate declarative connector manifests",
		Long: `manifest-pipeline processes declarative connector manifests.

Settings are read from an optional YAML file (--config), MANIFEST_* environment
variables (e.g. MANIFEST_STAGES_VALIDATE=true) and command-line flags, in
increasing order of precedence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "Path to configuration file (YAML format)")
	flags.Bool(flagDebug, false, "Enable debug logging")
	flags.String(flagFormat, "", "Output format (yaml or json), defaults to the input format")
	flags.StringP(flagOutput, "o", "", "Write the result to this file instead of stdout")
	flags.String(flagSchema, "", "Path to a component schema replacing the embedded one")
	flags.String(flagRegistry, "", "Path to a migration registry replacing the embedded one")
	flags.String(flagMetricsFile, "", "Write run metrics to this file in Prometheus text format")

	bindFlags(v, flags, map[string]string{
		flagConfig:                flagConfig,
		flagDebug:                 flagDebug,
		keyOutputPath:             flagOutput,
		config.KeyFormat:          flagFormat,
		config.KeyComponentSchema: flagSchema,
		config.KeyRegistry:        flagRegistry,
		config.KeyMetricsTextfile: flagMetricsFile,
	})

	rootCmd.AddCommand(newResolveCmd(v))
	rootCmd.AddCommand(newNormalizeCmd(v))
	rootCmd.AddCommand(newMigrateCmd(v))
	rootCmd.AddCommand(newProcessCmd(v))
	rootCmd.AddCommand(newMigrationsCmd(v))

	return rootCmd
}

// bindFlags binds viper keys to flags of the same command.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		cobra.CheckErr(v.BindPFlag(key, flags.Lookup(name)))
	}
}
