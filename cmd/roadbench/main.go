package main

import (
	"os"

	"github.com/trafficlab/roadbench/cmd/roadbench/cmd"
	"github.com/trafficlab/roadbench/internal/common"
)

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
