package main

import (
	"os"

	"github.com/cardeck/cardeck/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
