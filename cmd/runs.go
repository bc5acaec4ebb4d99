package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/core/runstore"
	"github.com/kilianp07/energyplan/core/solver"
)

var (
	runsStatus string
	runsLimit  int
	runsSince  time.Duration
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past planning runs from the history store",
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "only show runs with this status (OPTIMAL, INFEASIBLE, UNBOUNDED, ERROR)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to show, newest first")
	runsCmd.Flags().DurationVar(&runsSince, "since", 0, "only show runs newer than this duration")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q := runstore.Query{Limit: runsLimit}
	if runsStatus != "" {
		st, ok := solver.ParseStatus(runsStatus)
		if !ok {
			return fmt.Errorf("unknown status %q", runsStatus)
		}
		q.Status = &st
	}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}

	store, err := runstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("run history is disabled; set store.backend to jsonl or sqlite")
	}
	defer store.Close()

	recs, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tOBJECTIVE\tEXPECTED COST\tBETA\tKAPPA")
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%g\t%g\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Status, r.Objective, r.ExpectedCost, r.Beta, r.Kappa)
	}
	return tw.Flush()
}
