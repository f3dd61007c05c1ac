package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/shavtzak/internal/models"
	"github.com/fentz26/shavtzak/internal/stats"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute and inspect workload statistics",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Compute statistics from the roster and assignment log",
	RunE:  runStatsShow,
}

var statsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the current statistics view (history is preserved)",
	RunE:  runStatsReset,
}

var statsSave bool

func init() {
	statsCmd.AddCommand(statsShowCmd, statsResetCmd)
	statsShowCmd.Flags().BoolVar(&statsSave, "save", false, "Append the computed snapshot to the store")
}

func runStatsShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	reg, err := loadRegistry(s)
	if err != nil {
		return err
	}
	assignments, err := s.ListAllAssignments()
	if err != nil {
		return err
	}

	snap, err := stats.New().Summarize(reg.Snapshot(), assignments, cat)
	if err != nil {
		return err
	}

	if statsSave {
		id, err := s.AppendSnapshot(snap)
		if err != nil {
			return err
		}
		fmt.Printf("Saved snapshot %s\n\n", id)
	}

	printSnapshot(snap)
	return nil
}

func runStatsReset(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ResetCurrentSnapshot(); err != nil {
		return err
	}
	fmt.Println("Statistics view cleared; roster and assignment history untouched")
	return nil
}

func printSnapshot(snap *models.StatisticsSnapshot) {
	fmt.Printf("Workers: %d  X tasks: %d  Y tasks: %d\n\n", snap.TotalWorkers, snap.TotalX, snap.TotalY)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tTOTAL\tSHARE%\tDEVIATION%\tCLOSING ACCURACY")
	for _, ws := range snap.Workers {
		accuracy := "n/a"
		if ws.Closing != nil {
			if ws.Closing.LowSample {
				accuracy = "low confidence (<2 closings)"
			} else {
				accuracy = fmt.Sprintf("%.1f%% (avg %.2fw / target %.1fw)",
					ws.Closing.AccuracyPercent, ws.Closing.ActualAvgWeeks, ws.Closing.TargetWeeks)
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%+.1f\t%s\n",
			ws.Name, ws.Total, ws.SharePercent, ws.DeviationPercent, accuracy)
	}
	w.Flush()

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK TYPE\tKIND\tQUALIFIED\tASSIGNED\tPER QUALIFIED")
	for _, ts := range snap.TaskTypes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\n",
			ts.Name, ts.Kind, ts.QualifiedWorkers, ts.TotalAssignments, ts.AvgPerQualified)
	}
	tw.Flush()

	cs := snap.Closing
	fmt.Printf("\nClosing accuracy: %d measured, avg %.1f%%, >=90%%: %d, >=80%%: %d, <50%%: %d, low confidence: %d\n",
		cs.WorkersWithClosings, cs.AverageAccuracy, cs.Above90, cs.Above80, cs.Below50, cs.LowConfidence)
}
