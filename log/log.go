// Package log provides loggers for rack components.
package log

import (
	"io/ioutil"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug level when set to true.
const DebugEnv = "RACK_DEBUG"

var debug bool

// Logger is a global interface for rack loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger which discards everything.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// With returns logger which annotates entries with the component name.
func With(l *logrus.Logger, component string) Logger {
	return l.WithField("component", component)
}
