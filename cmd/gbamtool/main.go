// Command gbamtool is a thin CLI shell around the gbam library: convert
// builds a container from a JSON row source, flagstat reports its sixteen
// counters. No domain logic lives here beyond argument parsing and wiring.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gbamio/gbam/query/flagstat"
	"github.com/gbamio/gbam/reader"
	"github.com/gbamio/gbam/rowsource"
	"github.com/gbamio/gbam/writer"
)

var (
	inPath  string
	outPath string
)

func readRows(path string) ([]rowsource.RowRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rows []rowsource.RowRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s as a JSON row array: %w", path, err)
	}

	return rows, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	rows, err := readRows(inPath)
	if err != nil {
		return err
	}

	w, err := writer.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}

	if err := w.WriteAll(rowsource.NewSliceSource(rows)); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	return w.Close()
}

func runFlagstat(cmd *cobra.Command, args []string) error {
	r, err := reader.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer r.Close()

	stats, err := flagstat.Collect(r)
	if err != nil {
		return fmt.Errorf("computing flagstat for %s: %w", inPath, err)
	}

	fmt.Println(stats.String())

	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gbamtool",
		Short: "Convert to and query the gbam columnar alignment container",
	}

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a JSON row source into a gbam container file",
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVarP(&inPath, "in", "i", "", "path to the input JSON row array")
	convertCmd.Flags().StringVarP(&outPath, "out", "o", "", "path to the output container file")
	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")

	flagstatCmd := &cobra.Command{
		Use:   "flagstat",
		Short: "Print the sixteen-line flagstat report for a gbam container file",
		RunE:  runFlagstat,
	}
	flagstatCmd.Flags().StringVarP(&inPath, "in", "i", "", "path to the container file")
	flagstatCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(convertCmd, flagstatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
