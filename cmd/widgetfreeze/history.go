package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent freeze and unfreeze transitions",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of transitions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}
	if _, err := os.Stat(paths.JournalFile); os.IsNotExist(err) {
		fmt.Println("No transitions recorded yet.")
		return nil
	}

	journal, err := infra.OpenJournal(paths.JournalFile)
	if err != nil {
		return err
	}
	defer journal.Close()

	transitions, err := journal.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(transitions) == 0 {
		fmt.Println("No transitions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDIRECTION\tTARGET\tPID\tMODE\tREASON")
	for _, t := range transitions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			t.At.Local().Format("2006-01-02 15:04:05"),
			directionLabel(t.Direction),
			t.Target, t.PID, t.Mode, t.Reason)
	}
	return w.Flush()
}

func directionLabel(d domain.Direction) string {
	if d == domain.DirectionFreeze {
		return color.CyanString(string(d))
	}
	return color.GreenString(string(d))
}
