package main

import (
	"os"
	"time"

	"github.com/dockship/dockship/internal/cmd"
	"github.com/dockship/dockship/internal/errs"
	"github.com/dockship/dockship/internal/logging"
)

func main() {
	runLog, err := logging.OpenRunLog(time.Now())
	if err != nil {
		logging.Logger.Warnf("Continuing without a run log file: %v", err)
	} else {
		defer runLog.Close()
	}

	if err := cmd.Execute(); err != nil {
		logging.Logger.Error(err.Error())
		os.Exit(errs.ExitCode(err))
	}
}
