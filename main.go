package main

import (
	"errors"
	"os"

	"github.com/kilianp07/energyplan/app"
	"github.com/kilianp07/energyplan/cmd"
	"github.com/kilianp07/energyplan/infra/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.New("main").Errorf("%v", err)
		if errors.Is(err, app.ErrNoOptimalSolution) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
