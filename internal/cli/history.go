package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/slotbot/internal/infra/storage"
	"github.com/vietddude/slotbot/internal/infra/storage/postgres"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent confirmed bookings",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of bookings to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := setup()
	if cfg.Database.URL == "" {
		slog.Error("No database configured, booking history is disabled")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	records, err := postgres.NewHistoryRepo(db).Recent(ctx, historyLimit)
	if err != nil {
		slog.Error("Failed to list bookings", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No bookings recorded yet.")
		return
	}

	renderHistory(records)
}

func renderHistory(records []storage.BookingRecord) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tBENEFICIARY\tCENTER\tDATE\tSLOT\tDOSE\tCONFIRMATION")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.CreatedAt.Local().Format(time.RFC3339),
			rec.BeneficiaryID, rec.CenterName, rec.Date, rec.Slot, rec.Dose,
			rec.ConfirmationNumber)
	}
	w.Flush()
}
