package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show recorded attendance",
	Long: `Print the attendance ledger as a table. By default only today's records
(in the ledger time zone) are shown.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, default today)")
	reportCmd.Flags().Bool("all", false, "Show every record in the ledger")
}

// reportRows converts records into table rows with a running index.
func reportRows(records []ledger.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), r.Name, r.Date, r.Time})
	}
	return rows
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Ledger.Location()
	if err != nil {
		return err
	}

	date := mustGetString(cmd, "date")
	if date != "" {
		if _, err := time.Parse(ledger.DateLayout, date); err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
		}
	} else if !mustGetBool(cmd, "all") {
		date = time.Now().In(loc).Format(ledger.DateLayout)
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
	records = ledger.FilterByDate(records, date)

	if len(records) == 0 {
		if date != "" {
			fmt.Printf("No attendance recorded for %s\n", date)
		} else {
			fmt.Println("No attendance recorded")
		}
		return nil
	}

	fmt.Println(renderTable(
		[]string{"#", "Name", "Date", "Time"},
		reportRows(records),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}
