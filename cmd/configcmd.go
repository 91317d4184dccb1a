package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ratefilter/internal/config"
)

// newConfigCmd prints the configuration a run with the same flags would use.
func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Resolve the configuration from flags, RATEFILTER_* environment variables,
the configuration file and defaults, validate it, and print the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
