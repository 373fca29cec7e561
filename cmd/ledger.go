package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"playground/internal/logger"
	"playground/internal/sheets"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the latest rows of the Google Sheet ledger",
	Long: `Print the most recent rows written by --sheet.

By default the transfer log (Transfer_Log) is shown. Use --worksheet to read
the OCR log or any other worksheet of GOOGLE_SHEET_URL.`,
	Example: `  # Last 10 transfers
  playground ledger

  # Last 5 OCR analyses
  playground ledger --worksheet OCR_Log --limit 5`,
	Args: cobra.NoArgs,
	RunE: runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().String("worksheet", sheets.DefaultTransferSheet, "Worksheet to read")
	ledgerCmd.Flags().Int("limit", 10, "Number of rows to show (0 for all)")
	ledgerCmd.Flags().Int("timeout", 60, "Timeout in seconds")
}

func runLedger(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ledger")

	worksheet, _ := cmd.Flags().GetString("worksheet")
	limit, _ := cmd.Flags().GetInt("limit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	svc, err := createSheetsService(ctx, log)
	if err != nil {
		return err
	}

	header, rows, err := svc.Recent(ctx, worksheet, limit)
	if err != nil {
		log.Error().Err(err).Str("worksheet", worksheet).Msg("Failed to read ledger")
		return fmt.Errorf("failed to read Google Sheet: %w", err)
	}
	if header == nil {
		newPrinter(cmd).Warning("Worksheet %s is empty", worksheet)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	writeLedgerRow(w, header)
	for _, row := range rows {
		writeLedgerRow(w, row)
	}
	return w.Flush()
}

// writeLedgerRow writes one sheet row as a tab separated line. Long cells
// such as recognised text are shortened to keep the table readable.
func writeLedgerRow(w *tabwriter.Writer, row []interface{}) {
	cells := make([]string, len(row))
	for i, v := range row {
		cell := strings.ReplaceAll(fmt.Sprint(v), "\n", " ")
		if r := []rune(cell); len(r) > 40 {
			cell = string(r[:37]) + "..."
		}
		cells[i] = cell
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}
