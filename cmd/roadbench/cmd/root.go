package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trafficlab/roadbench/internal/common"
	commonconfig "github.com/trafficlab/roadbench/internal/common/config"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

const (
	CustomConfigLocation string = "config"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "roadbench",
		SilenceUsage: true,
		Short:        "Loads road traffic datasets into storage backends and compares them",
	}

	cmd.PersistentFlags().StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")
	if err := viper.BindPFlag(CustomConfigLocation, cmd.PersistentFlags().Lookup(CustomConfigLocation)); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		runCmd(),
		loadCmd(),
		deleteCmd(),
	)

	return cmd
}

func loadConfig() (configuration.RoadbenchConfiguration, error) {
	var config configuration.RoadbenchConfiguration
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)

	common.LoadConfig(&config, "./config/roadbench", userSpecifiedConfigs)

	err := config.Validate()
	if err != nil {
		commonconfig.LogValidationErrors(err)
	}
	return config, err
}
