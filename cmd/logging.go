package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default log rotation settings for --log-file.
const (
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 7
)

// LogRotationConfig holds lumberjack rotation settings for --log-file.
type LogRotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// setupLogging sets the logrus level and, when logFile is set, routes log
// output through a rotating file. The returned closer must be closed on exit.
func setupLogging(level, logFile string, rotation LogRotationConfig) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(lvl)

	if logFile == "" {
		logrus.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	w := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    valOr(rotation.MaxSizeMB, DefaultLogMaxSizeMB),
		MaxBackups: valOr(rotation.MaxBackups, DefaultLogMaxBackups),
		MaxAge:     valOr(rotation.MaxAgeDays, DefaultLogMaxAgeDays),
		Compress:   rotation.Compress,
	}
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return w, nil
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
