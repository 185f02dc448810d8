package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trafficlab/roadbench/internal/roadbench"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the measured operation suite and reports the results",
		RunE:  runSuite,
	}
	return cmd
}

func runSuite(_ *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	return roadbench.Run(&config)
}
