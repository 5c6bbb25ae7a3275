// Command featstore inspects feature-store container files. It sits outside
// the extraction core and only calls the public container operations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "featstore",
	Short: "inspect feature-store container files",
	Long: `featstore is a small inspection tool for feature-store container files.

It lists the typed fields of a container and prints decoded values, which is
useful when debugging training-data extraction runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(getCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
