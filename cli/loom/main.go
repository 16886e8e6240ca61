package main

import (
	"os"

	loomcmder "github.com/hearthside/loom/cmd/loom"
)

func main() {
	cmd := loomcmder.NewLoomCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
