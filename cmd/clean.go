package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst/internal/loader"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

var (
	cleanInput  string
	cleanOutput string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Deduplicate a dataset and fill missing values, writing CSV",
	Long:  `Clean loads a CSV or XLSX file, drops exact duplicate rows, fills missing numeric cells with 0 and missing categorical cells with Unknown, and writes the result as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(cleanInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		t, err := loader.Load(cleanInput, data)
		if err != nil {
			return err
		}
		cleaned := table.Clean(t)

		out := os.Stdout
		if cleanOutput != "" {
			f, err := os.Create(cleanOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := cleaned.WriteCSV(out); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}

		before, after := t.Summary(), cleaned.Summary()
		fmt.Fprintf(os.Stderr, "✓ Cleaned %s: %d → %d rows, %d missing cells filled\n",
			t.Name, before.Rows, after.Rows, before.Missing)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanInput, "file", "f", "", "input CSV or XLSX file (required)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output CSV path (default stdout)")
	cleanCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(cleanCmd)
}
