package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func Init(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

func L() *logrus.Logger {
	return log
}

func NewSublogger(tag string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"module": tag})
}
