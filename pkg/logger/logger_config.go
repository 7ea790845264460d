package logger

import "github.com/rs/zerolog"

type LoggerConfigJson struct {
	LogLevel string `json:"log_level"`
	Console  bool   `json:"console"`
}

type LoggerConfig struct {
	LogLevel zerolog.Level
	Console  bool
}

func (lcj LoggerConfigJson) ConvertToDomain() LoggerConfig {
	level, err := zerolog.ParseLevel(lcj.LogLevel)
	if err != nil || lcj.LogLevel == "" {
		level = zerolog.NoLevel
	}

	return LoggerConfig{
		LogLevel: level,
		Console:  lcj.Console,
	}
}
