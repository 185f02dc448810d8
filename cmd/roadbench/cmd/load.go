package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trafficlab/roadbench/internal/roadbench"
)

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load PATH",
		Short: "Loads one data file into one backend without measuring it",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}
	cmd.Flags().String(
		"backend", "postgres", "backend to load into")
	cmd.Flags().String(
		"shape", "5min", "data file shape, 5min or 1hour")
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	shape, err := cmd.Flags().GetString("shape")
	if err != nil {
		return err
	}
	return roadbench.Load(&config, backend, shape, args[0])
}
