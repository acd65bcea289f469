package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger: human-readable console output plus a
// rotating JSON log file under dir.
func New(level, dir string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "sonora.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	return zerolog.New(zerolog.MultiLevelWriter(console, fileSink)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
