package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the task-type catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective task-type catalog",
	RunE:  runCatalogShow,
}

func init() {
	catalogCmd.AddCommand(catalogShowCmd)
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tQUALIFICATION\tAUTO\tCLOSING\tSLOTS/DAY\tDURATION")
	for _, t := range cat.Types() {
		qual := t.RequiredQualification
		if qual == "" {
			qual = "-"
		}
		duration := "-"
		if t.DurationDays > 0 {
			duration = fmt.Sprintf("%dd", t.DurationDays)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\t%d\t%s\n",
			t.Name, t.Kind, qual, t.AutoAssign, t.Closing, t.SlotsPerDay, duration)
	}
	w.Flush()
	return nil
}
