package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	annotator "github.com/menta2k/image-annotator"
)

func embedCmd() *cobra.Command {
	var (
		lat, lng float64
		copyOut  bool
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Print the map embed snippet for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := annotator.New(annotator.OptionsFromConfig(cfg))

			pos := ed.Geo()
			if cmd.Flags().Changed("lat") {
				if err := pos.SetLat(lat); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("lng") {
				if err := pos.SetLng(lng); err != nil {
					return err
				}
			}

			if !copyOut {
				fmt.Println(ed.EmbedSnippet())
				return nil
			}

			snippet, copied := ed.CopyEmbed()
			fmt.Println(snippet)
			if copied {
				fmt.Println("Copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default from config)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude (default from config)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "also copy the snippet to the clipboard")
	return cmd
}
