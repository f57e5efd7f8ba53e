// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const systemName = "taskmanager-api"

var once sync.Once

type Options struct {
	Environment string
	Level       string
	// File is the rotating log path. Empty logs to stdout only.
	File string
}

// serviceHook stamps every entry with the emitting service.
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = systemName
	return nil
}

// InitLogger configures the standard logrus logger once.
func InitLogger(opts Options) {
	once.Do(func() {
		logger := logrus.StandardLogger()

		var out io.Writer = os.Stdout
		if opts.File != "" {
			if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
				logrus.Fatalf("Failed to create log directory: %v", err)
			}
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
		logger.SetOutput(out)

		if opts.Environment == "production" {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
		logger.AddHook(serviceHook{})

		logger.WithField("file", opts.File).Info("Logger initialized")
	})
}
