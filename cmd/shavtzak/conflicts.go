package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/shavtzak/internal/engine"
	"github.com/fentz26/shavtzak/internal/models"
	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report X/Y double-bookings over committed assignments",
	RunE:  runConflicts,
}

var (
	conflictsFrom string
	conflictsTo   string
)

func init() {
	conflictsCmd.Flags().StringVar(&conflictsFrom, "from", "", "Period start date, YYYY-MM-DD (required)")
	conflictsCmd.Flags().StringVar(&conflictsTo, "to", "", "Period end date, YYYY-MM-DD (required)")
	conflictsCmd.MarkFlagRequired("from")
	conflictsCmd.MarkFlagRequired("to")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	period, err := parsePeriod(conflictsFrom, conflictsTo)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	assignments, err := s.ListAssignments(period)
	if err != nil {
		return err
	}

	var xs, ys []models.Assignment
	for _, a := range assignments {
		if a.Kind == models.TaskKindX {
			xs = append(xs, a)
		} else {
			ys = append(ys, a)
		}
	}

	conflicts := engine.Conflicts(xs, ys)
	if len(conflicts) == 0 {
		fmt.Println("No conflicts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tDATE\tX TASK\tY TASK")
	for _, c := range conflicts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.WorkerID, models.FormatDate(c.Date), c.XTask, c.YTask)
	}
	w.Flush()
	return nil
}
