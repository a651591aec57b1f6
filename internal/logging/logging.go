// Package logging configures the run logger. Every run writes a
// timestamped log file next to the working directory in addition to the
// console, so remote command echoes survive the terminal session.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the shared logger instance
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetVerbose switches the logger to debug level.
func SetVerbose(verbose bool) {
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	}
}

// OpenRunLog creates the per-run log file, named with the run's start
// time, and tees all logger output into it. The returned closer must be
// called at process exit.
func OpenRunLog(start time.Time) (io.Closer, error) {
	name := fmt.Sprintf("dockship-%s.log", start.Format("20060102-150405"))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log %s: %w", name, err)
	}
	Logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}
