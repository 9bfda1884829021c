package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <out.csv>",
	Short: "Export the ledger as Name,Date,Time CSV",
	Long: `Write the ledger snapshot in the CSV attendance format. Use "-" for stdout.
This converts a SQLite ledger into the CSV file format.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("date", "", "Only export records of this date (YYYY-MM-DD)")
}

// exportRecords writes records as ledger CSV to path, atomically unless path is "-".
func exportRecords(records []ledger.Record, path string, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := ledger.WriteCSV(&buf, records); err != nil {
		return err
	}
	if path == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	records, err := l.Snapshot(context.Background())
	if err != nil {
		return err
	}
	records = ledger.FilterByDate(records, mustGetString(cmd, "date"))

	if err := exportRecords(records, args[0], os.Stdout); err != nil {
		return err
	}
	if args[0] != "-" {
		fmt.Printf("Exported %d record(s) to %s\n", len(records), args[0])
	}
	return nil
}
