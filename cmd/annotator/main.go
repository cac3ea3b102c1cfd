package main

import (
	"os"

	"github.com/menta2k/image-annotator/cmd/annotator/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
