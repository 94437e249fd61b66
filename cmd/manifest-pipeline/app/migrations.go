package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"manifest-pipeline/internal/config"
	"manifest-pipeline/internal/manifest"
)

type migrationInfo struct {
	Version     string `json:"version"`
	Migration   string `json:"migration"`
	Description string `json:"description,omitempty"`
}

func newMigrationsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrations",
		Short: "List registered migrations in the order they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			rt, err := newRuntime(v, func(s *config.StagesConfig) {
				*s = config.StagesConfig{Migrate: true}
			})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.close()) }()

			entries := rt.pipeline.Registry().Entries()
			infos := make([]migrationInfo, 0, len(entries))

			for _, e := range entries {
				infos = append(infos, migrationInfo{
					Version:     e.Version.String(),
					Migration:   e.Migration.Name(),
					Description: e.Description,
				})
			}

			if rt.cfg.Output.Format == string(manifest.FormatJSON) {
				out, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format migrations as JSON: %w", err)
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))

				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tMIGRATION\tDESCRIPTION")

			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Version, info.Migration, info.Description)
			}

			return w.Flush()
		},
	}
}
