package logger

import "sync"

type LoggerArg struct {
	Key   string
	Value string
}

type GlobalLoggerConfig struct {
	Config LoggerConfig
	Args   []LoggerArg
}

var (
	defaultLogger     *Logger
	onceLogger        sync.Once
	initializedLogger bool
)

func InitDefaultLogger(config GlobalLoggerConfig) {
	onceLogger.Do(func() {
		l := NewFromConfig(config.Config)
		for _, arg := range config.Args {
			l = l.WithField(arg.Key, arg.Value)
		}

		defaultLogger = l
		initializedLogger = true
	})
}

// Default returns the process logger, or a no-op logger when
// InitDefaultLogger has not run yet (library use, tests).
func Default() *Logger {
	if !initializedLogger {
		return Nop()
	}
	return defaultLogger
}
