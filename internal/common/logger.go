package common

import (
	"sync"

	"github.com/phuslu/log"
)

var (
	logger     *log.Logger
	loggerOnce sync.Once
)

// Logger returns the process-wide structured logger. Extractors receive it
// through the pipeline context rather than reaching for the global.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = &log.Logger{
			Level:      log.InfoLevel,
			TimeFormat: "15:04:05",
			Writer: &log.ConsoleWriter{
				ColorOutput:    log.IsTerminal(2),
				EndWithMessage: true,
			},
		}
	})
	return logger
}

// SetVerbose switches the global logger to debug level.
func SetVerbose() {
	Logger().Level = log.DebugLevel
}
