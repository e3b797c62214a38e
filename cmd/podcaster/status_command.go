package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/pipeline"
)

func newStatusCommand() *cobra.Command {
	var format string
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the stored episode set",
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()

			counts, err := db.CountEpisodes()
			if err != nil {
				return err
			}
			episodes, err := db.RecentEpisodes(limit)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"summary":  counts,
					"episodes": episodes,
				})
			case "csv":
				w := csv.NewWriter(os.Stdout)
				w.Write([]string{"id", "yt_id", "name", "stage", "filesize"})
				for i := range episodes {
					ep := &episodes[i]
					w.Write([]string{
						strconv.Itoa(ep.ID),
						ep.YoutubeID,
						ep.Name,
						ep.Stage().String(),
						strconv.FormatInt(ep.Filesize, 10),
					})
				}
				w.Flush()
				return w.Error()
			case "table":
				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"Total", "Active", "Downloaded", "Processed", "Scheduled", "Posted", "Oversized"})
				t.AppendRow(table.Row{
					counts.Total, counts.Active, counts.Downloaded,
					counts.Processed, counts.Scheduled, counts.Posted, counts.Oversized,
				})
				t.Render()

				t = table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"ID", "Video", "Name", "Stage"})
				for i := range episodes {
					ep := &episodes[i]
					t.AppendRow(table.Row{ep.ID, ep.YoutubeID, ep.Name, ep.Stage().String()})
				}
				t.Render()
				return nil
			}
			return fmt.Errorf("unknown format: %s", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json or csv")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent episodes to list")
	return cmd
}

// printReport renders a pass report as a small counts table plus any
// collected failures.
func printReport(rep *pipeline.Report) {
	rep.Finish()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Stage", "Count"})
	for _, row := range rep.Rows() {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.Render()

	for _, f := range rep.Failures {
		fmt.Printf("%s [%s] %s: %s\n", f.Stage, f.Kind, f.Subject, f.Error)
	}
}
