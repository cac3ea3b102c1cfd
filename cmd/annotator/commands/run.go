package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	annotator "github.com/menta2k/image-annotator"
	"github.com/menta2k/image-annotator/pkg/export"
	"github.com/menta2k/image-annotator/pkg/script"
)

func runCmd() *cobra.Command {
	var (
		outDir   string
		format   string
		persist  bool
		endpoint string
		snapshot bool
	)

	cmd := &cobra.Command{
		Use:   "run [script.json]",
		Short: "Replay an annotation script and save the annotated image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out") {
				cfg.Export.OutputDir = outDir
			}
			if cmd.Flags().Changed("format") {
				cfg.Export.Format = format
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Export.EndpointURL = endpoint
			}
			if cmd.Flags().Changed("snapshot-geo") {
				cfg.Geo.SnapshotGeo = snapshot
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := script.LoadFile(args[0])
			if err != nil {
				return err
			}

			ed, err := annotator.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			ed.SetNotifier(export.NotifierFunc(func(n export.Notification) {
				fmt.Printf("[%s] %s\n", n.Kind, n.Message)
			}))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			res, err := script.NewRunner(ed, args[0]).Run(ctx, s)
			if err != nil {
				return err
			}
			log.Printf("Replayed %d events: %d committed, %d discarded, %d ignored",
				len(s.Events), res.Committed, res.Discarded, res.Ignored)
			for _, label := range res.Suggestions {
				log.Printf("Suggested label: %s", label)
			}

			path, err := ed.SaveLocal()
			if err != nil {
				return err
			}
			fmt.Printf("Saved %s (%d boxes)\n", path, len(ed.Boxes()))

			if persist {
				// failure is already reported through the notifier
				if err := ed.Persist(ctx); err != nil {
					return fmt.Errorf("persist: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&format, "format", "png", "output format: png|jpg|webp")
	cmd.Flags().BoolVar(&persist, "persist", false, "submit the annotations to the persistence endpoint")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "persistence endpoint base URL")
	cmd.Flags().BoolVar(&snapshot, "snapshot-geo", false, "store the geolocation in each box at commit time")
	return cmd
}
