package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fentz26/shavtzak/internal/models"
	"github.com/fentz26/shavtzak/internal/roster"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage the worker roster",
}

var workerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workers",
	RunE:  runWorkerList,
}

var workerShowCmd = &cobra.Command{
	Use:   "show [worker-id]",
	Short: "Show worker details",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkerShow,
}

var workerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a worker to the roster",
	RunE:  runWorkerAdd,
}

var workerResetCmd = &cobra.Command{
	Use:   "reset [worker-id]",
	Short: "Reset worker counters (scoped; identity and qualifications untouched)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkerReset,
}

var (
	workerFilterQual string
	workerID         string
	workerName       string
	workerQuals      string
	workerOfficer    bool
	workerSeniority  string
	workerInterval   float64

	resetTasks    bool
	resetClosings bool
	resetScore    bool
	resetAll      bool
)

func init() {
	workerCmd.AddCommand(workerListCmd, workerShowCmd, workerAddCmd, workerResetCmd)

	workerListCmd.Flags().StringVar(&workerFilterQual, "qualification", "", "Filter by qualification")

	workerAddCmd.Flags().StringVar(&workerID, "id", "", "Worker ID (required)")
	workerAddCmd.Flags().StringVar(&workerName, "name", "", "Display name (required)")
	workerAddCmd.Flags().StringVar(&workerQuals, "qualifications", "", "Comma-separated qualifications")
	workerAddCmd.Flags().BoolVar(&workerOfficer, "officer", false, "Officer flag")
	workerAddCmd.Flags().StringVar(&workerSeniority, "seniority", "", "Seniority tier")
	workerAddCmd.Flags().Float64Var(&workerInterval, "interval", 4, "Target closing interval in weeks")
	workerAddCmd.MarkFlagRequired("id")
	workerAddCmd.MarkFlagRequired("name")

	workerResetCmd.Flags().BoolVar(&resetTasks, "tasks", false, "Reset task counters")
	workerResetCmd.Flags().BoolVar(&resetClosings, "closings", false, "Reset closing history")
	workerResetCmd.Flags().BoolVar(&resetScore, "score", false, "Reset legacy score")
	workerResetCmd.Flags().BoolVar(&resetAll, "all", false, "Reset every worker instead of one")
}

func runWorkerList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := loadRegistry(s)
	if err != nil {
		return err
	}

	workers := reg.List(roster.Filter{Qualification: workerFilterQual})
	if len(workers) == 0 {
		fmt.Println("No workers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tX\tY\tCLOSINGS\tINTERVAL\tQUALIFICATIONS")
	for _, wk := range workers {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.1f\t%s\n",
			wk.ID, wk.Name, wk.XTotal(), wk.YTotal(), wk.TotalClosings,
			wk.ClosingIntervalWeeks, strings.Join(wk.Qualifications, ","))
	}
	w.Flush()
	return nil
}

func runWorkerShow(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("ID:             %s\n", wk.ID)
	fmt.Printf("Name:           %s\n", wk.Name)
	fmt.Printf("Officer:        %v\n", wk.Officer)
	fmt.Printf("Seniority:      %s\n", wk.Seniority)
	fmt.Printf("Interval:       %.1f weeks\n", wk.ClosingIntervalWeeks)
	fmt.Printf("Qualifications: %s\n", strings.Join(wk.Qualifications, ", "))
	fmt.Printf("X tasks:        %d\n", wk.XTotal())
	fmt.Printf("Y tasks:        %d\n", wk.YTotal())
	fmt.Printf("Closings:       %d\n", wk.TotalClosings)
	if len(wk.ClosingHistory) > 0 {
		dates := make([]string, len(wk.ClosingHistory))
		for i, d := range wk.ClosingHistory {
			dates[i] = models.FormatDate(d)
		}
		fmt.Printf("Closing dates:  %s\n", strings.Join(dates, ", "))
	}
	return nil
}

func runWorkerAdd(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := loadRegistry(s)
	if err != nil {
		return err
	}

	var quals []string
	for _, q := range strings.Split(workerQuals, ",") {
		if q = strings.TrimSpace(q); q != "" {
			quals = append(quals, q)
		}
	}

	if workerInterval <= 0 {
		return fmt.Errorf("closing interval must be positive, got %v", workerInterval)
	}
	err = reg.Add(&models.Worker{
		ID:                   workerID,
		Name:                 workerName,
		Qualifications:       quals,
		Officer:              workerOfficer,
		Seniority:            workerSeniority,
		ClosingIntervalWeeks: workerInterval,
	})
	if err != nil {
		return err
	}
	if err := s.SaveWorkers(reg.Snapshot()); err != nil {
		return err
	}

	fmt.Printf("Added worker %s\n", workerID)
	return nil
}

func runWorkerReset(cmd *cobra.Command, args []string) error {
	scope := roster.Scope{Tasks: resetTasks, Closings: resetClosings, Score: resetScore}
	if !scope.Tasks && !scope.Closings && !scope.Score {
		return fmt.Errorf("nothing to reset: pass at least one of --tasks, --closings, --score")
	}
	if resetAll == (len(args) == 1) {
		return fmt.Errorf("pass either a worker id or --all")
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

	if resetAll {
		n := reg.ResetAllCounters(scope)
		fmt.Printf("Reset %d workers\n", n)
	} else {
		if err := reg.ResetCounters(args[0], scope); err != nil {
			return err
		}
		fmt.Printf("Reset worker %s\n", args[0])
	}
	return s.SaveWorkers(reg.Snapshot())
}
