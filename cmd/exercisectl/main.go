package main

import (
	"fmt"
	"os"

	"github.com/frossokourou/exercise-tracker/internal/cli"
	"github.com/frossokourou/exercise-tracker/internal/persistence"
)

func main() {
	if err := cli.NewRoot(persistence.Open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
