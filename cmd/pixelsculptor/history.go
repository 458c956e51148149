package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ivlev/pixelsculptor/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				dbPath = cfg.HistoryDB
			}
			if dbPath == "" {
				return errors.New("no history database: pass --db or set history_db in the config")
			}

			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("[*] No runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tSOURCE\tSIZE\tBLOCK\tSSIM\tPASSED\tTOOK")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%.4f\t%v\t%s\n",
					humanize.Time(r.StartedAt), r.Source, r.Width, r.Height,
					r.BlockSize, r.Score, r.Passed, r.Elapsed)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite history database (default: history_db from the config)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
