package commands

import (
	"github.com/spf13/cobra"

	"github.com/menta2k/image-annotator/internal/config"
)

var (
	configPath string
	cfg        *config.Config
)

func Execute() error {
	root := newRootCmd()
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "annotator",
		Short:        "Draw labelled, dated and geotagged boxes over images",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "config file (JSON; optional)")

	root.AddCommand(runCmd(), serveCmd(), embedCmd(), configCmd())
	return root
}
