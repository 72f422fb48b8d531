package logging

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Init configures the global logrus logger. The level comes from the
// CTFBOT_DEBUG and CTFBOT_LOG_LEVEL environment variables and defaults
// to info.
func Init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
		PadLevelText:    true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf(" %s:%d", filepath.Base(f.File), f.Line)
		},
	})
	logrus.SetReportCaller(true)

	level := logrus.InfoLevel
	switch {
	case viper.GetBool("debug"):
		level = logrus.DebugLevel
	case viper.GetString("log_level") != "":
		parsed, err := logrus.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			logrus.Fatalf("parsing log level: %v", err)
		}
		level = parsed
	}
	logrus.SetLevel(level)
}
