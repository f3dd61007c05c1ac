package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/shavtzak/internal/catalog"
	"github.com/fentz26/shavtzak/internal/roster"
	"github.com/fentz26/shavtzak/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shavtzak",
	Short: "Shavtzak - duty roster assignment engine",
	Long:  `Shavtzak assigns workers to recurring duty slots, balancing long-run workload fairness and honoring qualification and closing-interval constraints.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	dataPath    string
	catalogPath string
)

func init() {
	defaultData := "shavtzak.db"
	if home, err := os.UserHomeDir(); err == nil {
		defaultData = filepath.Join(home, ".shavtzak", "shavtzak.db")
	}
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", defaultData, "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to a YAML task-type catalog (defaults to the built-in catalog)")

	// Add subcommands
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// --- Shared helpers ---

func openStore() (*store.Store, error) {
	s, err := store.New(dataPath)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dataPath, err)
	}
	return s, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if catalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(catalogPath)
}

func loadRegistry(s *store.Store) (*roster.Registry, error) {
	workers, err := s.LoadWorkers()
	if err != nil {
		return nil, err
	}
	return roster.FromWorkers(workers)
}
