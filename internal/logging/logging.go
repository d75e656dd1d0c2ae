// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger for the named environment. Development logs at debug
// level in text form; every other environment logs JSON at info level.
func New(environment string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(out)

	if environment == "development" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
