package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fentz26/shavtzak/internal/closing"
	"github.com/fentz26/shavtzak/internal/engine"
	"github.com/fentz26/shavtzak/internal/models"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate and edit duty schedules",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fill all task slots in a period",
	RunE:  runScheduleRun,
}

var scheduleClosingsCmd = &cobra.Command{
	Use:   "closings [worker-id]",
	Short: "Plan a worker's closing weekends over a period",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleClosings,
}

var (
	scheduleFrom  string
	scheduleTo    string
	scheduleEdit  bool
	scheduleClear bool

	closingsFrom string
	closingsTo   string
)

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleClosingsCmd)

	scheduleRunCmd.Flags().StringVar(&scheduleFrom, "from", "", "Period start date, YYYY-MM-DD (required)")
	scheduleRunCmd.Flags().StringVar(&scheduleTo, "to", "", "Period end date, YYYY-MM-DD (required)")
	scheduleRunCmd.Flags().BoolVar(&scheduleEdit, "edit", false, "Edit mode: diff against the period's committed assignments instead of starting blank")
	scheduleRunCmd.Flags().BoolVar(&scheduleClear, "clear-first", false, "Reverse the period's committed assignments before regenerating")
	scheduleRunCmd.MarkFlagRequired("from")
	scheduleRunCmd.MarkFlagRequired("to")

	scheduleClosingsCmd.Flags().StringVar(&closingsFrom, "from", "", "Window start date, YYYY-MM-DD (required)")
	scheduleClosingsCmd.Flags().StringVar(&closingsTo, "to", "", "Window end date, YYYY-MM-DD (required)")
	scheduleClosingsCmd.MarkFlagRequired("from")
	scheduleClosingsCmd.MarkFlagRequired("to")
}

func runScheduleRun(cmd *cobra.Command, args []string) error {
	period, err := parsePeriod(scheduleFrom, scheduleTo)
	if err != nil {
		return err
	}

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

	opts := engine.Options{ClearFirst: scheduleClear}
	if scheduleEdit || scheduleClear {
		opts.Existing, err = s.ListAssignments(period)
		if err != nil {
			return err
		}
	}

	result, err := engine.New(reg, cat).Run(period, opts)
	if err != nil {
		return err
	}

	// Persist run and updated counters together; an edit or clear run
	// supersedes the period's prior runs instead of rewriting them.
	if err := s.SaveRun(result, scheduleEdit || scheduleClear); err != nil {
		return err
	}
	if err := s.SaveWorkers(reg.Snapshot()); err != nil {
		return err
	}

	printRunResult(result)
	return nil
}

func runScheduleClosings(cmd *cobra.Command, args []string) error {
	period, err := parsePeriod(closingsFrom, closingsTo)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := loadRegistry(s)
	if err != nil {
		return err
	}
	wk, err := reg.Get(args[0])
	if err != nil {
		return err
	}

	weeks := closing.FridaysBetween(period.Start, period.End)
	// Closes already on the books inside the window anchor the plan.
	var required []time.Time
	for _, d := range wk.ClosingHistory {
		if period.Contains(d) {
			required = append(required, d)
		}
	}

	plan := closing.PlanSchedule(weeks, required, int(wk.ClosingIntervalWeeks))

	fmt.Printf("Closing plan for %s (target every %.0f weeks)\n", wk.Name, wk.ClosingIntervalWeeks)
	for _, d := range plan.RequiredDates {
		fmt.Printf("  %s  committed\n", models.FormatDate(d))
	}
	for _, d := range plan.OptimalDates {
		fmt.Printf("  %s  optimal\n", models.FormatDate(d))
	}
	if next, ok := closing.NextOptimalDate(wk.ClosingHistory, int(wk.ClosingIntervalWeeks), period.Start, weeks); ok {
		fmt.Printf("Next optimal close given full history: %s\n", models.FormatDate(next))
	}
	return nil
}

func parsePeriod(from, to string) (models.Period, error) {
	start, err := models.ParseDate(from)
	if err != nil {
		return models.Period{}, fmt.Errorf("invalid --from date %q: %w", from, err)
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return models.Period{}, fmt.Errorf("invalid --to date %q: %w", to, err)
	}
	return models.Period{Start: start, End: end}, nil
}

func printRunResult(result *models.RunResult) {
	fmt.Printf("Run %s: %s\n", result.RunID, result.State)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTASK\tSLOT\tWORKER")
	for _, res := range result.Results {
		worker := res.WorkerID
		if res.Kept {
			worker += " (kept)"
		}
		if res.Unfilled {
			worker = "- " + res.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			models.FormatDate(res.Slot.Date), res.Slot.TaskType, res.Slot.Index, worker)
	}
	w.Flush()

	if len(result.Unfilled) > 0 {
		fmt.Printf("\n%d slot(s) need manual attention\n", len(result.Unfilled))
	}
	if len(result.Conflicts) > 0 {
		fmt.Printf("\nConflicts:\n")
		for _, c := range result.Conflicts {
			fmt.Printf("  %s on %s: %s vs %s\n", c.WorkerID, models.FormatDate(c.Date), c.XTask, c.YTask)
		}
	}
}
