package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the configured scenario catalog",
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := cfg.ScenarioCatalog()
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %8s %-10s %s\n", "NAME", "DRIFT", "VOLATILITY", "STRESS")
	for _, def := range catalog.Definitions() {
		stress := ""
		if def.IsStress {
			stress = "yes"
		}
		fmt.Printf("%-24s %+7.2f%% %-10s %s\n",
			def.Name, def.Drift*100, def.Volatility, stress)
	}
	return nil
}
