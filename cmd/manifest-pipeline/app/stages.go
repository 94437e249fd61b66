package app

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"manifest-pipeline/internal/config"
)

func onlyResolve(s *config.StagesConfig) {
	*s = config.StagesConfig{}
}

func newResolveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Expand $ref pointers and propagate $parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := newRuntime(v, onlyResolve)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.close()) }()

			doc, err := rt.load(args[0])
			if err != nil {
				return err
			}

			resolved, err := rt.pipeline.Resolve(doc)
			if err != nil {
				return err
			}

			return rt.write(cmd, resolved, args[0])
		},
	}
}

func newNormalizeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <manifest>",
		Short: "Resolve a manifest and move repeated linkable values into definitions.linked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := newRuntime(v, func(s *config.StagesConfig) {
				*s = config.StagesConfig{Normalize: true}
			})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.close()) }()

			doc, err := rt.load(args[0])
			if err != nil {
				return err
			}

			resolved, err := rt.pipeline.Resolve(doc)
			if err != nil {
				return err
			}

			res, err := rt.pipeline.Normalize(resolved)
			if err != nil {
				return err
			}

			if err := rt.report(res.Diagnostics); err != nil {
				return err
			}

			rt.logger.Info("manifest normalized",
				zap.Int("references", res.References),
				zap.Int("extracted_schemas", res.ExtractedSchemas),
			)

			return rt.write(cmd, res.Manifest, args[0])
		},
	}
}

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <manifest>",
		Short: "Resolve a manifest and apply every pending migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := newRuntime(v, func(s *config.StagesConfig) {
				*s = config.StagesConfig{Migrate: true}
			})
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.close()) }()

			doc, err := rt.load(args[0])
			if err != nil {
				return err
			}

			resolved, err := rt.pipeline.Resolve(doc)
			if err != nil {
				return err
			}

			migrated, records, err := rt.pipeline.Migrate(resolved)
			if err != nil {
				return err
			}

			for _, r := range records {
				rt.logger.Info("migration applied",
					zap.String("migration", r.Migration),
					zap.String("from", r.FromVersion),
					zap.String("to", r.ToVersion),
				)
			}

			return rt.write(cmd, migrated, args[0])
		},
	}
}

func newProcessCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <manifest>",
		Short: "Run every enabled stage over a manifest",
		Long: `Run reference resolution followed by the enabled stages:
normalization, migration and component schema validation.

A manifest that fails validation is still written, and the command exits
with an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := newRuntime(v, nil)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.close()) }()

			doc, err := rt.load(args[0])
			if err != nil {
				return err
			}

			res, err := rt.pipeline.Process(doc)
			if err != nil {
				return err
			}

			if err := rt.write(cmd, res.Manifest, args[0]); err != nil {
				return err
			}

			return rt.report(res.Diagnostics)
		},
	}

	flags := cmd.Flags()
	flags.Bool(flagNormalize, true, "Deduplicate linkable values into definitions.linked")
	flags.Bool(flagMigrate, true, "Apply pending migrations")
	flags.Bool(flagValidate, false, "Validate the result against the component schema")

	bindFlags(v, flags, map[string]string{
		config.KeyNormalize: flagNormalize,
		config.KeyMigrate:   flagMigrate,
		config.KeyValidate:  flagValidate,
	})

	return cmd
}
