package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
}

type NullLogger struct{}

func (NullLogger) Debug(msg string) {}
func (NullLogger) Info(msg string)  {}
func (NullLogger) Warn(msg string)  {}
func (NullLogger) Error(msg string) {}
func (NullLogger) Fatal(msg string) {}
func (NullLogger) WithField(key string, value interface{}) Logger {
	return NullLogger{}
}

func NewNullLogger() Logger {
	return NullLogger{}
}

var (
	log  Logger = NullLogger{}
	once sync.Once
)

// Dir returns the launchpad state directory, ~/.launchpad.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".launchpad"), nil
}

// InitLogger initializes the file logger. The terminal belongs to the wizard,
// so everything is written to ~/.launchpad/launchpad.log.
func InitLogger(level string) {
	once.Do(func() {
		dir, err := Dir()
		if err != nil {
			panic(err.Error())
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			panic("Failed to create .launchpad directory: " + err.Error())
		}

		logFile, err := os.OpenFile(filepath.Join(dir, "launchpad.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic("Failed to open log file: " + err.Error())
		}

		lvl, err := zerolog.ParseLevel(level)
		if err != nil || level == "" {
			lvl = zerolog.InfoLevel
		}
		zerologLogger := zerolog.New(logFile).Level(lvl).With().Timestamp().Logger()
		log = NewZerologAdapter(&zerologLogger)
	})
}

// GetLogger returns the logger instance
func GetLogger() Logger {
	return log
}

// ZerologAdapter adapts zerolog.Logger to our Logger interface
type ZerologAdapter struct {
	logger *zerolog.Logger
}

func NewZerologAdapter(l *zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

func (z *ZerologAdapter) Debug(msg string) { z.logger.Debug().Msg(msg) }
func (z *ZerologAdapter) Info(msg string)  { z.logger.Info().Msg(msg) }
func (z *ZerologAdapter) Warn(msg string)  { z.logger.Warn().Msg(msg) }
func (z *ZerologAdapter) Error(msg string) { z.logger.Error().Msg(msg) }
func (z *ZerologAdapter) Fatal(msg string) { z.logger.Fatal().Msg(msg) }
func (z *ZerologAdapter) WithField(key string, value interface{}) Logger {
	newLogger := z.logger.With().Interface(key, value).Logger()
	return &ZerologAdapter{logger: &newLogger}
}
