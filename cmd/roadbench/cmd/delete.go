package cmd

import (
	"github.com/spf13/cobra"

	"github.com/trafficlab/roadbench/internal/roadbench"
)

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete SCOPE",
		Short: "Deletes loaded data from one backend, by table scope or by row",
		Long: `Deletes loaded data from one backend.

SCOPE is 5min, 1hour or all to drop whole table groups, or row:TABLE:ID to
delete a single row by primary key.`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}
	cmd.Flags().String(
		"backend", "postgres", "backend to delete from")
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	return roadbench.Delete(&config, backend, args[0])
}
