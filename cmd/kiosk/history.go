package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/attendance-kiosk/internal/model"
	"github.com/nhle/attendance-kiosk/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent attendance attempts recorded by this kiosk",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer journal.Close()

		ctx := cmd.Context()
		attempts, err := journal.RecentAttempts(ctx, historyLimit)
		if err != nil {
			return err
		}

		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		counts, err := journal.OutcomeCounts(ctx, midnight)
		if err != nil {
			return err
		}

		return writeHistory(os.Stdout, attempts, counts)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", store.DefaultHistoryLimit, "number of attempts to show")
	rootCmd.AddCommand(historyCmd)
}

// writeHistory prints attempts as a table followed by today's totals.
func writeHistory(out io.Writer, attempts []model.Attempt, today map[model.OutcomeKind]int) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(out, "No attempts recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STARTED\tOUTCOME\tEMPLOYEE\tDETAIL\tCONFIDENCE\tTOOK")
	fmt.Fprintln(w, "-------\t-------\t--------\t------\t----------\t----")

	for _, a := range attempts {
		detail := a.Status
		if a.ErrorCode != "" {
			detail = a.ErrorCode
		}
		confidence := "-"
		if a.Confidence != nil {
			confidence = fmt.Sprintf("%.0f%%", *a.Confidence*100)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.StartedAt.Local().Format("2006-01-02 15:04:05"),
			a.Outcome,
			dash(a.Employee),
			dash(detail),
			confidence,
			a.FinishedAt.Sub(a.StartedAt).Round(time.Millisecond),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(today) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(today))
	for k := range today {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprint(out, "\nToday:")
	for _, k := range kinds {
		fmt.Fprintf(out, " %s=%d", k, today[model.OutcomeKind(k)])
	}
	_, err := fmt.Fprintln(out)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
