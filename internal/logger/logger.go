// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger holds logging options, embedded into command options as a group.
type Logger struct {
	Level      string `long:"log-level"       env:"LOG_LEVEL"       description:"Log level"                         choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format     string `long:"log-format"      env:"LOG_FORMAT"      description:"Log output format"                 choice:"pretty" choice:"json" default:"pretty"`
	File       string `long:"log-file"        env:"LOG_FILE"        description:"Write logs to a rotated file instead of stderr"`
	MaxSize    int    `long:"log-max-size"    env:"LOG_MAX_SIZE"    description:"Rotate the log file after this many MB" default:"64"`
	MaxBackups int    `long:"log-max-backups" env:"LOG_MAX_BACKUPS" description:"Rotated log files to keep"         default:"3"`
}

// Setup applies the options to the global logger.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	log.Logger = zerolog.New(l.Writer()).With().Timestamp().Logger()

	log.Debug().
		Str("level", level.String()).
		Str("format", l.Format).
		Str("file", l.File).
		Msg("Logger initialized")
}

// Writer returns the destination described by the options.
func (l *Logger) Writer() io.Writer {
	var out io.Writer = os.Stderr

	if l.File != "" {
		out = &lumberjack.Logger{
			Filename:   l.File,
			MaxSize:    l.MaxSize, // MB
			MaxBackups: l.MaxBackups,
			MaxAge:     14,
			Compress:   true,
		}
	}

	if l.Format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.DateTime,
			NoColor:    l.File != "", // no escape codes in files
		}
	}

	return out
}
