package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init инициализирует структурированный логгер.
// В development пишем текстом с полным временем, в остальных окружениях JSON.
func Init(env string) {
	Log = logrus.New()

	level := logrus.InfoLevel
	if env == "development" {
		level = logrus.DebugLevel
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
	Log.SetLevel(level)
}

// SetOutput перенаправляет вывод логгера (используется в тестах).
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
