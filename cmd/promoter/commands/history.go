package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/history"
	"git.home.luguber.info/inful/promoter/internal/metrics"
	"git.home.luguber.info/inful/promoter/internal/report"
)

// HistoryCmd implements the 'history' command: list recent promotion runs
// from the local ledger.
type HistoryCmd struct {
	Service string `help:"Only show promotions of this service."`
	Limit   int    `help:"Maximum number of rows." default:"20"`
	DB      string `help:"Ledger database path (defaults to history.path from the config file)."`
}

func (c *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}

	dbPath := c.DB
	if dbPath == "" {
		dbPath = cfg.History.Path
	}
	if dbPath == "" {
		return errors.ValidationError("history ledger is not configured (--db or history.path in the config file)", nil)
	}

	ledger, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = ledger.Close()
	}()

	ctx := context.Background()
	var records []history.Record
	if c.Service != "" {
		records, err = ledger.ByService(ctx, c.Service, c.Limit)
	} else {
		records, err = ledger.Recent(ctx, c.Limit)
	}
	if err != nil {
		return err
	}

	renderHistory(os.Stdout, records)
	return nil
}

func renderHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No promotions recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tENV\tSERVICE\tREF\tOUTCOME\tATTEMPTS\tCOMMIT")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.Timestamp.Format(time.RFC3339),
			rec.Environment,
			rec.Service,
			report.ShortRef(rec.Ref),
			colorOutcome(rec.Outcome),
			rec.Attempts,
			report.ShortRef(rec.CommitSHA))
	}
	_ = tw.Flush()
}

func colorOutcome(outcome string) string {
	switch outcome {
	case string(metrics.OutcomeSuccess):
		return color.GreenString(outcome)
	case string(metrics.OutcomeConflictExhausted):
		return color.YellowString(outcome)
	default:
		return color.RedString(outcome)
	}
}
