package main

import (
	"os"

	"github.com/msto63/kinematics/cmd/kin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
