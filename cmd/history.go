package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pocketllm/internal/history"
	"github.com/msalah0e/pocketllm/internal/ui"
)

func historyCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log"},
		Short:   "Show past quantization runs",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("run history")

			entries, err := history.Read(count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No runs recorded yet.")
				fmt.Println("  Runs are recorded by `pocketllm quantize` and `pocketllm quick`")
				return
			}
			printEntries(entries)
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 for all)")

	cmd.AddCommand(
		historySearchCmd(),
		historyClearCmd(),
		historyExportCmd(),
		historyStatsCmd(),
	)
	return cmd
}

func historySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search run history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := history.Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}

			ui.Banner("search results")
			printEntries(results)
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the run history",
		Run: func(cmd *cobra.Command, args []string) {
			if err := history.Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Run history cleared\n", ui.StatusIcon(true))
		},
	}
}

func historyExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export run history as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := history.Read(0)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if entries == nil {
				entries = []history.Entry{}
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rates and durations per method",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("run stats")

			s, err := history.Summarize()
			if err != nil || s.Total == 0 {
				fmt.Println("  No runs recorded yet.")
				return
			}

			fmt.Printf("  Total runs: %d · succeeded: %d · last run: %s\n\n",
				s.Total, s.Succeeded, s.LastRun.Format("Jan 02 15:04"))

			var rows [][]string
			for _, m := range s.Methods {
				rows = append(rows, []string{
					m.Method,
					fmt.Sprintf("%d", m.Runs),
					fmt.Sprintf("%d/%d", m.Succeeded, m.Runs),
					formatDuration(m.AvgDuration),
				})
			}
			ui.Table([]string{"Method", "Runs", "OK", "Avg duration"}, rows)
		},
	}
}

func printEntries(entries []history.Entry) {
	var rows [][]string
	for _, e := range entries {
		method := e.Method
		if method == "" {
			method = "-"
		}
		dur := "-"
		if e.Duration > 0 {
			dur = formatDuration(time.Duration(e.Duration * float64(time.Second)))
		}
		status := ui.StatusIcon(e.Status == history.StatusOK) + " " + e.Status
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			e.Command,
			method,
			status,
			dur,
			truncate(e.Details, 40),
		})
	}
	ui.Table([]string{"Time", "Command", "Method", "Status", "Duration", "Details"}, rows)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
