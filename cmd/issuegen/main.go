// Command issuegen writes a synthetic, deduplicated issue dataset as JSON.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "issuegen",
	Short: "Generate and deduplicate synthetic civic issues",
	Long: `Generate reproducible synthetic civic issue reports, merge near-duplicates
and write the result as JSON.

Examples:
  # 6000 reports with the default seed, merged, to stdout
  issuegen

  # Same dataset every time regardless of the current date
  issuegen --count 500 --seed 7 --anchor 2025-06-01 --output issues.json

  # Keep every report, annotated with its cluster
  issuegen --all --options dedup.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := flagsFrom(cmd)
		if err != nil {
			return err
		}
		if opts.output == "" || opts.output == "-" {
			return generate(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
		return generateFile(opts, cmd.ErrOrStderr())
	},
}

// generateFile writes to opts.output. A failed close is reported since it
// can be the first sign of a short write.
func generateFile(opts genOptions, errOut io.Writer) (err error) {
	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.output, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", opts.output, cerr)
		}
	}()
	return generate(opts, f, errOut)
}

func init() {
	f := rootCmd.Flags()
	f.Int("count", 6000, "number of base reports to generate")
	f.Int64("seed", 42, "generator seed")
	f.String("anchor", "", "anchor date (YYYY-MM-DD); defaults to today in UTC")
	f.String("options", "", "YAML file with dedup options")
	f.Bool("all", false, "emit every report instead of one merged issue per cluster")
	f.StringP("output", "o", "-", "output file, - for stdout")
	f.Bool("stats", false, "print a summary to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
