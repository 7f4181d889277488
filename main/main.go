package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/app-sre/saas-metrics/cmd"
)

func main() {
	root, err := cmd.New(afero.NewOsFs())
	if err != nil {
		fmt.Printf("Failed to initialize the saas-metrics command %s.\n", err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Printf("Unexpected error %s.\n", err)
		os.Exit(1)
	}
}
