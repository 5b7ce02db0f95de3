package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/shuttle/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent uploads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.RecentUploads(limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of uploads to show")
	return cmd
}

func printHistory(w io.Writer, records []domain.UploadRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No uploads yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFILE\tSIZE\tRESULT\tLINK")
	for _, r := range records {
		outcome := r.Outcome
		if r.Resolution != "" {
			outcome += " (" + r.Resolution + ")"
		}
		if r.Outcome == domain.OutcomeFailed.String() && r.Message != "" {
			outcome += ": " + r.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(r.At),
			r.FileName,
			humanize.Bytes(uint64(r.Size)),
			outcome,
			r.WebLink)
	}
	return tw.Flush()
}
