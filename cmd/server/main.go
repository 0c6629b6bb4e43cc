package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "ricemarket",
		Short:        "Rice marketplace: farmers list rice, buyers pay them directly",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
